package soto

import (
	"context"
	"reflect"
	"strings"

	"github.com/soto-project/soto-core-runtime/shape"
)

// PaginateParams configures one pagination run. OutputTokenPath and MoreResultsPath are dot-separated field
// paths evaluated by reflection against the decoded output shape;
// MoreResultsPath may be empty when the operation has no such field.
type PaginateParams struct {
	Command         func(ctx context.Context, input shape.PaginateToken) (interface{}, error)
	OutputTokenPath string
	MoreResultsPath string
}

// Paginate drives a paged operation to completion: it calls command, feeds
// (acc, output) to onPage, and — provided onPage asked to continue, the
// output token is non-nil and differs from the token just used, and
// moreResults (if present) is true — rebuilds the input via
// UsingPaginationToken and repeats. It never loops on a stuck-token
// server bug: an unchanged token always terminates the loop.
func Paginate(
	ctx context.Context,
	initial shape.PaginateToken,
	params PaginateParams,
	initialAcc interface{},
	onPage func(acc interface{}, output interface{}) (cont bool, next interface{}),
) (interface{}, error) {
	acc := initialAcc
	input := initial
	lastToken := ""

	for {
		if err := ctx.Err(); err != nil {
			return acc, err
		}

		output, err := params.Command(ctx, input)
		if err != nil {
			return acc, err
		}

		cont, next := onPage(acc, output)
		acc = next
		if !cont {
			return acc, nil
		}

		if params.MoreResultsPath != "" {
			more, ok := lookupBoolField(output, params.MoreResultsPath)
			if ok && !more {
				return acc, nil
			}
		}

		token, ok := lookupStringField(output, params.OutputTokenPath)
		if !ok || token == "" || token == lastToken {
			return acc, nil
		}

		input = input.UsingPaginationToken(token)
		lastToken = token
	}
}

func lookupStringField(v interface{}, path string) (string, bool) {
	fv, ok := lookupField(v, path)
	if !ok {
		return "", false
	}
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return "", false
		}
		fv = fv.Elem()
	}
	if fv.Kind() != reflect.String {
		return "", false
	}
	return fv.String(), true
}

func lookupBoolField(v interface{}, path string) (bool, bool) {
	fv, ok := lookupField(v, path)
	if !ok {
		return false, false
	}
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return false, false
		}
		fv = fv.Elem()
	}
	if fv.Kind() != reflect.Bool {
		return false, false
	}
	return fv.Bool(), true
}

func lookupField(v interface{}, path string) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for _, name := range strings.Split(path, ".") {
		for rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				return reflect.Value{}, false
			}
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		rv = rv.FieldByName(name)
		if !rv.IsValid() {
			return reflect.Value{}, false
		}
	}
	return rv, true
}
