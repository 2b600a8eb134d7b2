package soto

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soto-project/soto-core-runtime/credentials"
	"github.com/soto-project/soto-core-runtime/protocol"
	"github.com/soto-project/soto-core-runtime/region"
	"github.com/soto-project/soto-core-runtime/request"
	"github.com/soto-project/soto-core-runtime/shape"
)

type getWidgetInput struct {
	Name string
}

type getWidgetOutput struct {
	Name  string `json:"Name"`
	Count int    `json:"Count"`
}

func TestClientExecuteDecodesSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/widgets/gizmo" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"Name":"gizmo","Count":3}`))
	}))
	defer server.Close()

	transport, err := NewHTTPTransport()
	if err != nil {
		t.Fatal(err)
	}

	client := NewClient(credentials.AnonymousProvider{}, transport, protocol.DefaultCodec{})

	var out getWidgetOutput
	op := Operation{
		Name:         "GetWidget",
		PathTemplate: "/widgets/{Name}",
		Method:       http.MethodGet,
		Input:        &getWidgetInput{Name: "gizmo"},
		Descriptor: shape.Descriptor{
			{Label: "Name", WireName: "Name", Location: shape.URI("Name")},
		},
		Output: &out,
	}
	svc := ServiceConfig{
		ServiceName: "widgets",
		Region:      region.Named("us-east-1"),
		Request: request.ServiceConfig{
			Dialect:  protocol.DialectRestJSON,
			Endpoint: server.URL,
		},
	}

	if err := client.Execute(context.Background(), svc, op); err != nil {
		t.Fatal(err)
	}
	if out.Name != "gizmo" || out.Count != 3 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestClientExecuteMapsServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"__type":"com.example#NoSuchWidget","message":"not found"}`))
	}))
	defer server.Close()

	transport, err := NewHTTPTransport()
	if err != nil {
		t.Fatal(err)
	}
	client := NewClient(credentials.AnonymousProvider{}, transport, protocol.DefaultCodec{})
	client.Retry.MaxRetries = 0

	var out getWidgetOutput
	op := Operation{
		Name:         "GetWidget",
		PathTemplate: "/widgets/{Name}",
		Method:       http.MethodGet,
		Input:        &getWidgetInput{Name: "missing"},
		Descriptor: shape.Descriptor{
			{Label: "Name", WireName: "Name", Location: shape.URI("Name")},
		},
		Output: &out,
	}
	svc := ServiceConfig{
		ServiceName: "widgets",
		Region:      region.Named("us-east-1"),
		Request: request.ServiceConfig{
			Dialect:  protocol.DialectJSON,
			Endpoint: server.URL,
		},
	}

	err = client.Execute(context.Background(), svc, op)
	if err == nil {
		t.Fatal("expected a mapped service error")
	}
}
