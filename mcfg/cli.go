package mcfg

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/merr"
)

// SourceCLI is a Source which will parse configuration from the CLI.
//
// Possible CLI options are generated by joining a Param's Path and Name with
// dashes. For example:
//
//	cmp := new(mcmp.Component)
//	cmpFile := cmp.Child("file")
//	path := mcfg.String(cmpFile, "path")
//	// path can be set with "--file-path"
//
// If the "-h" or "--help" option is seen then a help page will be printed to
// stderr and the process will exit. Since all normally-defined parameters must
// begin with double-dash ("--") they won't ever conflict with the help option.
//
// Values may be given as "--name=value" or "--name value". Boolean parameters
// may be given with no value at all.
type SourceCLI struct {
	Args []string // if nil then os.Args[1:] is used

	DisableHelpPage bool

	// HelpWriter is where the help page is written, defaults to os.Stderr.
	HelpWriter io.Writer

	exit func(int) // os.Exit, swapped out in tests
}

const (
	cliKeyJoin   = "-"
	cliKeyPrefix = "--"
	cliValSep    = "="
	cliHelpArgs  = "-h --help"
)

var _ Source = new(SourceCLI)

func (cli *SourceCLI) cliParams(params []Param) map[string]Param {
	m := make(map[string]Param, len(params))
	for _, p := range params {
		m[cliKeyPrefix+p.fullName()] = p
	}
	return m
}

// Parse implements the method for the Source interface.
func (cli *SourceCLI) Parse(params []Param) ([]ParamValue, error) {
	args := cli.Args
	if cli.Args == nil {
		args = os.Args[1:]
	}

	pM := cli.cliParams(params)
	pvs := make([]ParamValue, 0, len(args))
	var (
		key         string
		p           Param
		pOk         bool
		pvStrVal    string
		pvStrValOk  bool
		helpSeen    bool
		helpArgsSet = strings.Fields(cliHelpArgs)
	)

	for _, arg := range args {
		if pOk {
			pvStrVal = arg
			pvStrValOk = true
		} else if !cli.DisableHelpPage && contains(helpArgsSet, arg) {
			helpSeen = true
			break
		} else {
			for key, p = range pM {
				if arg == key {
					pOk = true
					break
				}

				prefix := key + cliValSep
				if !strings.HasPrefix(arg, prefix) {
					continue
				}
				pOk = true
				pvStrVal = strings.TrimPrefix(arg, prefix)
				pvStrValOk = true
				break
			}
			if !pOk {
				return nil, merr.New("unexpected config parameter",
					mctx.Annotated("param", arg))
			}
		}

		// pOk is always true at this point, and so p is filled in

		// As a special case for CLI, if a boolean has no value set it means it
		// is true.
		if p.IsBool && !pvStrValOk {
			pvStrVal = "true"
		} else if !pvStrValOk {
			// everything else should have a value. if pvStrVal isn't filled it
			// means the next arg should be one. Continue the loop, it'll get
			// filled with the next one (hopefully)
			continue
		}

		pvs = append(pvs, ParamValue{
			Name:  p.Name,
			Path:  p.Component.Path(),
			Value: p.fuzzyParse(pvStrVal),
		})

		key = ""
		p = Param{}
		pOk = false
		pvStrVal = ""
		pvStrValOk = false
	}

	if pOk && !pvStrValOk {
		return nil, merr.New("param expected a value", mctx.Annotated("param", key))
	}

	if helpSeen {
		w := cli.HelpWriter
		if w == nil {
			w = os.Stderr
		}
		cli.printHelp(w, params)
		exit := cli.exit
		if exit == nil {
			exit = os.Exit
		}
		exit(1)
	}

	return pvs, nil
}

func contains(ss []string, s string) bool {
	for _, s2 := range ss {
		if s == s2 {
			return true
		}
	}
	return false
}

func (cli *SourceCLI) printHelp(w io.Writer, params []Param) {
	// required params are printed first
	ordered := make([]Param, 0, len(params))
	for _, p := range params {
		if p.Required {
			ordered = append(ordered, p)
		}
	}
	for _, p := range params {
		if !p.Required {
			ordered = append(ordered, p)
		}
	}

	fmt.Fprint(w, "\n")
	for _, p := range ordered {
		fmt.Fprintf(w, "%s%s", cliKeyPrefix, p.fullName())
		if p.Required {
			fmt.Fprint(w, " (Required)")
		} else if p.IsBool {
			fmt.Fprint(w, " (Flag)")
		} else if defVal := defaultStr(p.Into); defVal != "" && defVal != `""` {
			fmt.Fprintf(w, " (Default: %s)", defVal)
		}
		fmt.Fprint(w, "\n")
		if usage := strings.TrimSpace(p.Usage); usage != "" {
			if !strings.HasSuffix(usage, ".") {
				usage += "."
			}
			fmt.Fprintln(w, "\t"+usage)
		}
		fmt.Fprint(w, "\n")
	}
}

func defaultStr(into interface{}) string {
	if into == nil {
		return ""
	}
	v := reflect.Indirect(reflect.ValueOf(into))
	if !v.IsValid() {
		return ""
	} else if s, ok := v.Interface().(fmt.Stringer); ok {
		return fmt.Sprintf("%q", s.String())
	}
	return fmt.Sprintf("%#v", v.Interface())
}
