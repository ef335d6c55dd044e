package script

import (
	"reflect"

	"github.com/traefik/yaegi/interp"

	"github.com/chr1sbest/splice/internal/papa"
	"github.com/chr1sbest/splice/internal/splice"
)

// Import paths of the host packages injected into every interpreter.
const (
	SplicePackage = "splice"
	PapaPackage   = "papa"
)

// hostSymbols builds the injected packages. Var and Vars close over vars, so
// every interpreter sees only the context it was created with.
func hostSymbols(vars map[string]string) interp.Exports {
	lookup := func(name string) string { return vars[name] }
	all := func() map[string]string {
		out := make(map[string]string, len(vars))
		for k, v := range vars {
			out[k] = v
		}
		return out
	}

	return interp.Exports{
		SplicePackage + "/splice": {
			"File":          reflect.ValueOf((*splice.File)(nil)),
			"Record":        reflect.ValueOf((*splice.Record)(nil)),
			"Blob":          reflect.ValueOf((*splice.Blob)(nil)),
			"Future":        reflect.ValueOf((*splice.Future)(nil)),
			"Defer":         reflect.ValueOf(splice.Defer),
			"Resolved":      reflect.ValueOf(splice.Resolved),
			"NewBlob":       reflect.ValueOf(splice.NewBlob),
			"TextBlob":      reflect.ValueOf(splice.TextBlob),
			"FileFromBytes": reflect.ValueOf(splice.FileFromBytes),
			"TypeText":      reflect.ValueOf(splice.TypeText),
			"TypeBinary":    reflect.ValueOf(splice.TypeBinary),
			"Var":           reflect.ValueOf(lookup),
			"Vars":          reflect.ValueOf(all),
		},
		PapaPackage + "/papa": {
			"Config":            reflect.ValueOf((*papa.Config)(nil)),
			"Result":            reflect.ValueOf((*papa.Result)(nil)),
			"ParseError":        reflect.ValueOf((*papa.ParseError)(nil)),
			"Parse":             reflect.ValueOf(papa.Parse),
			"Unparse":           reflect.ValueOf(papa.Unparse),
			"UnparseRecords":    reflect.ValueOf(papa.UnparseRecords),
			"CodeTooFewFields":  reflect.ValueOf(papa.CodeTooFewFields),
			"CodeTooManyFields": reflect.ValueOf(papa.CodeTooManyFields),
			"CodeInvalidQuotes": reflect.ValueOf(papa.CodeInvalidQuotes),
			"CodeUndetectable":  reflect.ValueOf(papa.CodeUndetectable),
		},
	}
}
