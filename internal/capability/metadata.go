package capability

// Syntax records which template surfaces a capability is reachable from.
type Syntax struct {
	Function bool `json:"function" yaml:"function" toml:"function"`
	Filter   bool `json:"filter" yaml:"filter" toml:"filter"`
	IsTest   bool `json:"is_test" yaml:"is_test" toml:"is_test"`
}

// Syntax sets implied by each dispatch protocol.
var (
	FunctionOnly      = Syntax{Function: true}
	FunctionAndFilter = Syntax{Function: true, Filter: true}
	FunctionAndTest   = Syntax{Function: true, IsTest: true}
)

// Strings lists the enabled surfaces in a fixed order.
func (s Syntax) Strings() []string {
	var out []string
	if s.Function {
		out = append(out, "function")
	}
	if s.Filter {
		out = append(out, "filter")
	}
	if s.IsTest {
		out = append(out, "is_test")
	}
	return out
}

// Argument describes one parameter of a capability.
type Argument struct {
	Name        string  `json:"name" yaml:"name" toml:"name"`
	Type        string  `json:"type" yaml:"type" toml:"type"`
	Required    bool    `json:"required" yaml:"required" toml:"required"`
	Default     *string `json:"default" yaml:"default" toml:"default,omitempty"`
	Description string  `json:"description" yaml:"description" toml:"description"`
}

// Metadata is the static, self-describing record every capability carries.
// It is what the ide command exports for editor tooling.
type Metadata struct {
	Name        string     `json:"name" yaml:"name" toml:"name"`
	Category    string     `json:"category" yaml:"category" toml:"category"`
	Description string     `json:"description" yaml:"description" toml:"description"`
	Arguments   []Argument `json:"arguments" yaml:"arguments" toml:"arguments"`
	ReturnType  string     `json:"return_type" yaml:"return_type" toml:"return_type"`
	Examples    []string   `json:"examples" yaml:"examples" toml:"examples"`
	Syntax      Syntax     `json:"syntax" yaml:"syntax" toml:"syntax"`
}

// Arg declares a required argument.
func Arg(name, typ, description string) Argument {
	return Argument{Name: name, Type: typ, Required: true, Description: description}
}

// OptArg declares an optional argument with a default rendered as text.
func OptArg(name, typ, def, description string) Argument {
	d := def
	return Argument{Name: name, Type: typ, Default: &d, Description: description}
}

// OptArgNoDefault declares an optional argument without a default value.
func OptArgNoDefault(name, typ, description string) Argument {
	return Argument{Name: name, Type: typ, Description: description}
}
