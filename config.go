package cnext

import "fmt"

type Config map[string]*cfgVal

// TargetProfile controls the atomic-RMW lowering strategy (§4.4): some
// targets advertise LDREX/STREX exclusive access, others fall back to
// PRIMASK save/disable/restore.
type TargetProfile struct {
	Name           string
	HasExclusiveLD bool
}

var targetProfiles = map[string]TargetProfile{
	"cortex-m0":  {Name: "cortex-m0", HasExclusiveLD: false},
	"cortex-m3":  {Name: "cortex-m3", HasExclusiveLD: true},
	"cortex-m4":  {Name: "cortex-m4", HasExclusiveLD: true},
	"cortex-m7":  {Name: "cortex-m7", HasExclusiveLD: true},
	"generic":    {Name: "generic", HasExclusiveLD: false},
}

// ResolveTarget looks up a --target id, defaulting to "generic" when
// unknown so the LDREX/STREX lowering never applies to a target that
// didn't advertise it.
func ResolveTarget(id string) TargetProfile {
	if p, ok := targetProfiles[id]; ok {
		return p
	}
	return targetProfiles["generic"]
}

// NewConfig creates a configuration object primed with all the
// defaults the include resolver, symbol collector, and code generator
// expect to find. The `codegen.*` and `resolver.*` keys take the place
// of the teacher's `grammar.*` keys: each is a setting consulted by a
// single stage.
func NewConfig() *Config {
	m := make(Config)
	m.SetBool("codegen.cpp", false)
	m.SetBool("codegen.debug", false)
	m.SetBool("codegen.synthesize_default_case", true)
	m.SetBool("codegen.cache_strlen", true)
	m.SetBool("resolver.warn_unresolved_local_includes", true)
	m.SetString("codegen.target", "generic")
	m.SetString("codegen.out_dir", "")
	m.SetString("codegen.header_out_dir", "")
	m.SetString("codegen.base_path", "")
	return &m
}

type cfgValType int

const (
	cfgValType_Undefined cfgValType = iota
	cfgValType_Bool
	cfgValType_Int
	cfgValType_String
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValType_Undefined: "undefined",
		cfgValType_Bool:      "bool",
		cfgValType_Int:       "int",
		cfgValType_String:    "string",
	}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

// assignType is mostly for preventing programming errors.
func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValType_Undefined {
		panic(fmt.Sprintf("Can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("Can't retrieve `%s` from `%s` variable", vt, v.typ))
	}
}

func (c *Config) SetBool(path string, v bool) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_Bool)
	(*c)[path].asBool = v
}

func (c *Config) SetInt(path string, v int) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_Int)
	(*c)[path].asInt = v
}

func (c *Config) SetString(path string, v string) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_String)
	(*c)[path].asString = v
}

func (c *Config) GetBool(path string) bool {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Bool)
		return val.asBool
	}
	panic(fmt.Sprintf("Bool setting `%s` does not exist", path))
}

func (c *Config) GetInt(path string) int {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Int)
		return val.asInt
	}
	panic(fmt.Sprintf("Int setting `%s` does not exist", path))
}

func (c *Config) GetString(path string) string {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_String)
		return val.asString
	}
	panic(fmt.Sprintf("String setting `%s` does not exist", path))
}
