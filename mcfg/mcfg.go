// Package mcfg implements the creation of different types of configuration
// parameters and various methods of filling those parameters from external
// configuration sources (e.g. the command line, environment variables and
// YAML files).
//
// Parameters are registered onto a Component (see the mcmp package), and are
// populated all at once by Populate on the root Component:
//
//	cmp := new(mcmp.Component)
//	chunkSize := mcfg.Int(cmp.Child("file"), "chunk-size",
//		mcfg.ParamDefault(510),
//		mcfg.ParamUsage("Number of bytes read from a file per chunk"))
//	if err := mcfg.Populate(cmp, &mcfg.SourceCLI{}); err != nil {
//		...
//	}
//
package mcfg

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/Nick-ccq/k10-base64/mcmp"
	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/merr"
)

func sortParams(params []Param) {
	sort.Slice(params, func(i, j int) bool {
		a, b := params[i], params[j]
		aPath, bPath := a.Component.Path(), b.Component.Path()
		for {
			switch {
			case len(aPath) == 0 && len(bPath) == 0:
				return a.Name < b.Name
			case len(aPath) == 0 && len(bPath) > 0:
				return false
			case len(aPath) > 0 && len(bPath) == 0:
				return true
			case aPath[0] != bPath[0]:
				return aPath[0] < bPath[0]
			default:
				aPath, bPath = aPath[1:], bPath[1:]
			}
		}
	})
}

func paramHash(path []string, name string) string {
	return strings.Join(append(append([]string(nil), path...), name), "\x00")
}

// Populate uses the Source to populate the values of all Params which were
// added to the given Component and its children. Populate may be called
// multiple times with the same Component, each time will only affect the
// values of the Params which were provided by the respective Source.
//
// Source may be nil to indicate that no configuration is provided. Only
// default values will be used, and if any parameters are required this will
// error.
func Populate(cmp *mcmp.Component, src Source) error {
	if src == nil {
		src = ParamValues(nil)
	}

	params := CollectParams(cmp)
	pvs, err := src.Parse(params)
	if err != nil {
		return err
	}

	// dedupe the ParamValues based on their hashes, with the last ParamValue
	// taking precedence.
	pvM := map[string]ParamValue{}
	for _, pv := range pvs {
		pvM[paramHash(pv.Path, pv.Name)] = pv
	}

	// check for required params
	for _, param := range params {
		if !param.Required {
			continue
		} else if _, ok := pvM[paramHash(param.Component.Path(), param.Name)]; !ok {
			ctx := mctx.Annotate(param.Component.Context(), "param", param.fullName())
			return merr.New("required parameter is not set", ctx)
		}
	}

	for _, param := range params {
		pv, ok := pvM[paramHash(param.Component.Path(), param.Name)]
		if !ok || param.Into == nil {
			continue
		}
		if err := json.Unmarshal(pv.Value, param.Into); err != nil {
			ctx := mctx.Annotate(param.Component.Context(),
				"param", param.fullName(),
				"value", string(pv.Value))
			return merr.Wrap(err, ctx)
		}
	}

	return nil
}
