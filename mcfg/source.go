package mcfg

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/merr"
)

// ParamValue describes a value for a parameter which has been parsed by a
// Source.
type ParamValue struct {
	Name  string
	Path  []string
	Value json.RawMessage
}

// Source parses ParamValues out of a particular configuration source, given the
// Params which the Source should be looking for. The returned []ParamValue may
// contain duplicates of the same Param's value, in which case the latter
// takes precedence. It may also contain ParamValues which do not correspond to
// any of the given Params.
type Source interface {
	Parse([]Param) ([]ParamValue, error)
}

// ParamValues is simply a slice of ParamValue elements, which implements Parse
// by always returning itself as-is.
type ParamValues []ParamValue

var _ Source = ParamValues{}

// Parse implements the method for the Source interface.
func (pvs ParamValues) Parse([]Param) ([]ParamValue, error) {
	return pvs, nil
}

// Sources combines together multiple Source instances into one. It will call
// Parse on each element individually. Values from later Sources take
// precedence over previous ones.
type Sources []Source

var _ Source = Sources{}

// Parse implements the method for the Source interface.
func (ss Sources) Parse(params []Param) ([]ParamValue, error) {
	var pvs []ParamValue
	for _, s := range ss {
		innerPVs, err := s.Parse(params)
		if err != nil {
			return nil, err
		}
		pvs = append(pvs, innerPVs...)
	}
	return pvs, nil
}

////////////////////////////////////////////////////////////////////////////////

// SourceEnv is a Source which will parse configuration from the process
// environment.
//
// Possible Env options are generated by joining a Param's Path and Name with
// underscores and making all characters uppercase, as well as changing all
// dashes to underscores.
//
//	a-b-c="foo"
//
// becomes
//
//	A_B_C="foo"
//
type SourceEnv struct {
	// In the format key=value. Defaults to os.Environ() if nil.
	Env []string

	// If set then all expected Env options must be prefixed with this string,
	// which will be uppercased and have dashes replaced with underscores like
	// all the other parts of the option names.
	Prefix string
}

var _ Source = new(SourceEnv)

func (env *SourceEnv) expectedName(path []string, name string) string {
	out := strings.Join(append(append([]string(nil), path...), name), "_")
	if env.Prefix != "" {
		out = env.Prefix + "_" + out
	}
	out = strings.Replace(out, "-", "_", -1)
	out = strings.ToUpper(out)
	return out
}

// Parse implements the method for the Source interface.
func (env *SourceEnv) Parse(params []Param) ([]ParamValue, error) {
	kvs := env.Env
	if kvs == nil {
		kvs = os.Environ()
	}

	pM := map[string]Param{}
	for _, p := range params {
		pM[env.expectedName(p.Component.Path(), p.Name)] = p
	}

	var pvs []ParamValue
	for _, kv := range kvs {
		split := strings.SplitN(kv, "=", 2)
		if len(split) != 2 {
			return nil, merr.New("malformed environment key/value pair",
				mctx.Annotated("kv", kv))
		}
		k, v := split[0], split[1]
		if p, ok := pM[k]; ok {
			pvs = append(pvs, ParamValue{
				Name:  p.Name,
				Path:  p.Component.Path(),
				Value: p.fuzzyParse(v),
			})
		}
	}

	return pvs, nil
}
