package rules

import (
	"embed"
	"fmt"
	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
	"gopkg.in/yaml.v3"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed default/*.yaml
var Embedded embed.FS

type Engine struct {
	RuleSets map[string]RuleSet
	Rules    []CompiledRule
}

func New() *Engine {
	return &Engine{RuleSets: map[string]RuleSet{}}
}

// EntityValues maps an entity setting to an expression evaluated against the Input.
type EntityValues map[string]string

type Entities struct {
	Add    map[string]EntityValues `yaml:"add"`
	Remove map[string]EntityValues `yaml:"remove"`
}

type Actions struct {
	Entities Entities `yaml:"entities"`
}

type Rule struct {
	Description string  `yaml:"description"`
	Filter      string  `yaml:"filter"`
	Actions     Actions `yaml:"actions"`
	Children    []Rule  `yaml:"children"`
}

type RuleSet struct {
	Name      string   `yaml:"name"`
	DependsOn []string `yaml:"depends_on"`
	Rules     []Rule   `yaml:"rules"`
}

type CompiledEntityValues map[string]*vm.Program

type CompiledEntities struct {
	Add    map[string]CompiledEntityValues
	Remove map[string]CompiledEntityValues
}

type CompiledActions struct {
	Entities CompiledEntities
}

type CompiledRule struct {
	Description string
	Filter      *vm.Program
	Actions     CompiledActions
	Children    []CompiledRule
}

type InputDevice struct {
	ID   string
	Name string
	Type string
}

type Input struct {
	Device InputDevice
}

type Output struct {
	Entities map[string]Settings
}

func (e *Engine) LoadString(s string) error {
	return e.LoadReader(strings.NewReader(s))
}

func (e *Engine) LoadReader(r io.Reader) error {
	var rs RuleSet

	if err := yaml.NewDecoder(r).Decode(&rs); err != nil {
		return fmt.Errorf("ruleset decode: %w", err)
	}

	if len(rs.Name) == 0 {
		return fmt.Errorf("ruleset has no name")
	}

	if _, found := e.RuleSets[rs.Name]; found {
		return fmt.Errorf("ruleset already loaded: %s", rs.Name)
	}

	e.RuleSets[rs.Name] = rs
	return nil
}

func (e *Engine) LoadFS(f fs.FS) error {
	return fs.WalkDir(f, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if ext := path.Ext(p); ext != ".yaml" && ext != ".yml" {
			return nil
		}

		file, err := f.Open(p)
		if err != nil {
			return err
		}
		defer file.Close()

		if err := e.LoadReader(file); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}

		return nil
	})
}

func (e *Engine) CompileRules() error {
	alreadyLoaded := map[string]bool{}

	var names []string

	for k := range e.RuleSets {
		alreadyLoaded[k] = false
		names = append(names, k)
	}

	sort.Strings(names)

	for _, k := range names {
		if !alreadyLoaded[k] {
			if err := e.compileRuleSet(alreadyLoaded, []string{}, k); err != nil {
				return err
			}
		}
	}

	return nil
}

func (e *Engine) compileRuleSet(alreadyLoaded map[string]bool, trail []string, name string) error {
	rs, ok := e.RuleSets[name]
	if !ok {
		return fmt.Errorf("ruleset missing dependency: %s->%s", strings.Join(trail, "->"), name)
	}

	trail = append(trail, rs.Name)

	for _, k := range rs.DependsOn {
		for _, t := range trail {
			if k == t {
				return fmt.Errorf("ruleset circular dependency: %s->%s", strings.Join(trail, "->"), k)
			}
		}

		if !alreadyLoaded[k] {
			if err := e.compileRuleSet(alreadyLoaded, trail, k); err != nil {
				return err
			}
		}
	}

	if cr, err := compileRules(rs.Rules); err != nil {
		return fmt.Errorf("ruleset compilation: %s: %w", strings.Join(trail, "->"), err)
	} else {
		e.Rules = append(e.Rules, cr...)
	}

	alreadyLoaded[name] = true

	return nil
}

func compileRules(rules []Rule) ([]CompiledRule, error) {
	var compiledRules []CompiledRule

	for _, rule := range rules {
		filter := rule.Filter
		if len(filter) == 0 {
			filter = "true"
		}

		cf, err := expr.Compile(filter, expr.Env(Input{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("filter compilation: %w", err)
		}

		ca, err := compileActions(rule.Actions)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rule.Description, err)
		}

		if childCompiledRules, err := compileRules(rule.Children); err != nil {
			return nil, fmt.Errorf("%s: %w", rule.Description, err)
		} else {
			compiledRules = append(compiledRules, CompiledRule{
				Description: rule.Description,
				Filter:      cf,
				Actions:     ca,
				Children:    childCompiledRules,
			})
		}
	}

	return compiledRules, nil
}

func compileActions(a Actions) (CompiledActions, error) {
	add, err := compileEntities(a.Entities.Add)
	if err != nil {
		return CompiledActions{}, err
	}

	remove, err := compileEntities(a.Entities.Remove)
	if err != nil {
		return CompiledActions{}, err
	}

	return CompiledActions{Entities: CompiledEntities{Add: add, Remove: remove}}, nil
}

func compileEntities(in map[string]EntityValues) (map[string]CompiledEntityValues, error) {
	out := map[string]CompiledEntityValues{}

	for entity, values := range in {
		cv := CompiledEntityValues{}

		for k, v := range values {
			p, err := expr.Compile(v, expr.Env(Input{}))
			if err != nil {
				return nil, fmt.Errorf("value compilation: %s.%s: %w", entity, k, err)
			}

			cv[k] = p
		}

		out[entity] = cv
	}

	return out, nil
}

// Execute runs every compiled rule against the input, in dependency order. A matching rule applies its actions and
// then descends into its children, later rules may remove entities added by earlier ones.
func (e *Engine) Execute(i Input) (Output, error) {
	o := Output{Entities: map[string]Settings{}}

	if err := executeRules(e.Rules, i, &o); err != nil {
		return Output{}, err
	}

	return o, nil
}

func executeRules(rules []CompiledRule, i Input, o *Output) error {
	for _, r := range rules {
		matched, err := expr.Run(r.Filter, i)
		if err != nil {
			return fmt.Errorf("filter execution: %s: %w", r.Description, err)
		}

		if m, ok := matched.(bool); !ok || !m {
			continue
		}

		for entity, values := range r.Actions.Entities.Add {
			s := Settings{}

			for k, p := range values {
				v, err := expr.Run(p, i)
				if err != nil {
					return fmt.Errorf("value execution: %s: %s.%s: %w", r.Description, entity, k, err)
				}

				s[k] = v
			}

			o.Entities[entity] = s
		}

		for entity := range r.Actions.Entities.Remove {
			delete(o.Entities, entity)
		}

		if err := executeRules(r.Children, i, o); err != nil {
			return err
		}
	}

	return nil
}
