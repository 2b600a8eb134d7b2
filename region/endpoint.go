package region

import "fmt"

// VariantTable maps a variant flag combination to a hostname template
// containing "{service}" and "{region}" placeholders. A service that does
// not publish a variant simply omits it from the table.
type VariantTable map[VariantFlags]string

// EndpointResolver resolves the endpoint for a single service, honoring a
// fixed resolution order:
//
//  1. explicit override
//  2. per-region service endpoint map
//  3. partition global endpoint (global services)
//  4. default https://{service}.{region}.{dnsSuffix}
type EndpointResolver struct {
	Service        string
	Override       string
	PerRegion      map[string]string
	GlobalEndpoint string
	IsGlobal       bool
	Variants       VariantTable
}

// Resolve produces the final endpoint for the given region and variant
// flags. Non-zero flags are resolved first and alone: the service's variant
// table must have a matching template, and Override, PerRegion and the
// global endpoint are not consulted. With zero-value flags, Override wins,
// then a PerRegion entry, then the global endpoint, then the partition
// default.
func (r EndpointResolver) Resolve(reg Region, flags VariantFlags) (string, error) {
	if flags != (VariantFlags{}) {
		tmpl, ok := r.Variants[flags]
		if !ok {
			return "", &ErrNoEndpointForVariant{Service: r.Service, Variant: flags}
		}
		return substitute(tmpl, r.Service, reg.String()), nil
	}

	if r.Override != "" {
		return r.Override, nil
	}
	if r.PerRegion != nil {
		if ep, ok := r.PerRegion[reg.String()]; ok {
			return ep, nil
		}
	}
	if r.IsGlobal && r.GlobalEndpoint != "" {
		return r.GlobalEndpoint, nil
	}
	return fmt.Sprintf("https://%s.%s.%s", r.Service, reg.String(), reg.Partition().DNSSuffix()), nil
}

func substitute(tmpl, service, reg string) string {
	out := make([]byte, 0, len(tmpl))
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] == '{' {
			if hasPrefixAt(tmpl, i, "{service}") {
				out = append(out, service...)
				i += len("{service}") - 1
				continue
			}
			if hasPrefixAt(tmpl, i, "{region}") {
				out = append(out, reg...)
				i += len("{region}") - 1
				continue
			}
		}
		out = append(out, tmpl[i])
	}
	return string(out)
}

func hasPrefixAt(s string, at int, prefix string) bool {
	if at+len(prefix) > len(s) {
		return false
	}
	return s[at:at+len(prefix)] == prefix
}
