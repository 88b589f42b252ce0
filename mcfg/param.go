package mcfg

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Nick-ccq/k10-base64/mcmp"
	"github.com/Nick-ccq/k10-base64/mtime"
)

// Param is a configuration parameter which can be populated by Populate. The
// Param exists as part of a Component, relative to its path. For example, a
// Param with name "addr" on a Component with path []string{"redis"} is set on
// the CLI via "--redis-addr", and in the environment via "REDIS_ADDR". Other
// Sources may treat the path and name differently.
//
// Param values are always unmarshaled as JSON values into the Into field of the
// Param, regardless of the actual Source.
type Param struct {
	// How the parameter will be identified within a Component.
	Name string

	// A helpful description of how a parameter is expected to be used.
	Usage string

	// If the parameter's value is expected to be read as a go string. This is
	// used by Sources like CLI which will automatically quote the value if it
	// isn't already.
	IsString bool

	// If the parameter's value is expected to be a boolean. This is used by
	// Sources like CLI which treat boolean parameters (aka flags) differently.
	IsBool bool

	// If true then the parameter _must_ be set by at least one Source.
	Required bool

	// The pointer/interface into which the configuration value will be
	// json.Unmarshal'd. The value being pointed to also determines the default
	// value of the parameter.
	Into interface{}

	// The Component this Param was added to. This is filled in automatically
	// by AddParam.
	Component *mcmp.Component

	defaultVal interface{}
}

// ParamOption is a modifier which can be passed into any of the Param-adding
// functions.
type ParamOption func(*Param)

// ParamRequired returns a ParamOption which ensures the parameter is required
// to be set by some configuration source.
func ParamRequired() ParamOption {
	return func(param *Param) {
		param.Required = true
	}
}

// ParamDefault returns a ParamOption which sets the default value of the
// parameter. The value must marshal to JSON in a way which unmarshals into the
// Param's Into field, e.g. an mtime.Duration for Duration params.
func ParamDefault(value interface{}) ParamOption {
	return func(param *Param) {
		param.defaultVal = value
	}
}

// ParamUsage returns a ParamOption which sets the usage string on the Param.
// This is used in some Sources (e.g. the CLI help page).
func ParamUsage(usage string) ParamOption {
	return func(param *Param) {
		param.Usage = usage
	}
}

func (p Param) fullName() string {
	return strings.Join(append(append([]string(nil), p.Component.Path()...), p.Name), "-")
}

func (p Param) fuzzyParse(v string) json.RawMessage {
	if p.IsBool {
		if v == "" || v == "0" || v == "false" {
			return json.RawMessage("false")
		}
		return json.RawMessage("true")

	} else if p.IsString && (v == "" || v[0] != '"') {
		b, _ := json.Marshal(v)
		return json.RawMessage(b)
	}

	return json.RawMessage(v)
}

type cmpParamKey struct{}

// AddParam adds the given Param to the given Component. It will panic if a
// Param with the same Name already exists on the Component, or if a default
// value is given which can't be set on Into.
func AddParam(cmp *mcmp.Component, param Param, opts ...ParamOption) {
	param.Name = strings.ToLower(param.Name)
	param.Component = cmp
	for _, opt := range opts {
		opt(&param)
	}

	for _, existing := range getLocalParams(cmp) {
		if existing.Name == param.Name {
			panic(fmt.Sprintf("component %q already has param %q", cmp.Path(), param.Name))
		}
	}

	if param.defaultVal != nil {
		b, err := json.Marshal(param.defaultVal)
		if err == nil {
			err = json.Unmarshal(b, param.Into)
		}
		if err != nil {
			panic(fmt.Sprintf("invalid default for param %q: %v", param.fullName(), err))
		}
	}

	mcmp.AddSeriesValue(cmp, cmpParamKey{}, param)
}

func getLocalParams(cmp *mcmp.Component) []Param {
	values := mcmp.SeriesValues(cmp, cmpParamKey{})
	params := make([]Param, len(values))
	for i := range values {
		params[i] = values[i].(Param)
	}
	return params
}

// CollectParams gathers all Params by recursively retrieving them from the
// given Component and its children. Returned Params are sorted according to
// their Path and Name.
func CollectParams(cmp *mcmp.Component) []Param {
	var params []Param
	mcmp.BreadthFirstVisit(cmp, func(cmp *mcmp.Component) bool {
		params = append(params, getLocalParams(cmp)...)
		return true
	})
	sortParams(params)
	return params
}

////////////////////////////////////////////////////////////////////////////////

// Int returns an *int which will be populated once Populate is run on the
// Component.
func Int(cmp *mcmp.Component, name string, opts ...ParamOption) *int {
	var i int
	AddParam(cmp, Param{Name: name, Into: &i}, opts...)
	return &i
}

// String returns a *string which will be populated once Populate is run on
// the Component.
func String(cmp *mcmp.Component, name string, opts ...ParamOption) *string {
	var s string
	AddParam(cmp, Param{Name: name, IsString: true, Into: &s}, opts...)
	return &s
}

// Bool returns a *bool which will be populated once Populate is run on the
// Component, and which defaults to false if unconfigured.
//
// The default behavior of all Sources is that a boolean parameter will be set
// to true unless the value is "", 0, or false. In the case of the CLI Source
// the value will also be true when the parameter is used with no value at all,
// as would be expected.
func Bool(cmp *mcmp.Component, name string, opts ...ParamOption) *bool {
	var b bool
	AddParam(cmp, Param{Name: name, IsBool: true, Into: &b}, opts...)
	return &b
}

// Duration returns an *mtime.Duration which will be populated once Populate
// is run on the Component.
func Duration(cmp *mcmp.Component, name string, opts ...ParamOption) *mtime.Duration {
	var d mtime.Duration
	AddParam(cmp, Param{Name: name, IsString: true, Into: &d}, opts...)
	return &d
}
