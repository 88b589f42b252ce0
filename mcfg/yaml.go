package mcfg

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/merr"
	"gopkg.in/yaml.v3"
)

// SourceYAML is a Source which will parse configuration from a YAML document.
// Each element of a Param's Path is a nested mapping, and the Param's Name is
// the key within the innermost one:
//
//	log-level: debug
//	http:
//	  listener:
//	    listen-addr: ":8080"
//	redis:
//	  addr: "127.0.0.1:6379"
//
// Keys which don't correspond to any Param are ignored.
type SourceYAML struct {
	// Path of the YAML file to read. If empty then Body is used instead.
	Path string

	// Raw YAML document, used when Path is empty.
	Body []byte

	// If true then a missing file at Path is treated as an empty document.
	Optional bool
}

var _ Source = new(SourceYAML)

// Parse implements the method for the Source interface.
func (y *SourceYAML) Parse(params []Param) ([]ParamValue, error) {
	body := y.Body
	if y.Path != "" {
		var err error
		if body, err = os.ReadFile(y.Path); os.IsNotExist(err) && y.Optional {
			return nil, nil
		} else if err != nil {
			return nil, merr.Wrap(err, mctx.Annotated("yamlPath", y.Path))
		}
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return nil, merr.Wrap(err, mctx.Annotated("yamlPath", y.Path))
	}

	var pvs []ParamValue
	for _, p := range params {
		v, ok := lookupYAML(doc, append(append([]string(nil), p.Component.Path()...), p.Name))
		if !ok {
			continue
		}

		var raw json.RawMessage
		if s, isStr := v.(string); isStr {
			raw = p.fuzzyParse(s)
		} else {
			b, err := json.Marshal(v)
			if err != nil {
				ctx := mctx.Annotated("yamlPath", y.Path, "param", p.fullName())
				return nil, merr.Wrap(err, ctx)
			}
			raw = b
		}

		pvs = append(pvs, ParamValue{
			Name:  p.Name,
			Path:  p.Component.Path(),
			Value: raw,
		})
	}
	return pvs, nil
}

func lookupYAML(doc map[string]interface{}, keys []string) (interface{}, bool) {
	var curr interface{} = doc
	for _, k := range keys {
		m, ok := curr.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if curr, ok = m[k]; !ok {
			return nil, false
		}
	}
	if _, isMap := curr.(map[string]interface{}); isMap {
		return nil, false
	}
	return curr, true
}

// String implements fmt.Stringer, mostly for use in log annotations.
func (y *SourceYAML) String() string {
	if y.Path != "" {
		return fmt.Sprintf("yaml(%s)", y.Path)
	}
	return "yaml(inline)"
}
