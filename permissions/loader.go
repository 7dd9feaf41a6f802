package permissions

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-campus-authz/pkg/types"
	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

const (
	textCodeInvalidMatrix = "INVALID_MATRIX"
	operationAll          = "all"
)

//go:embed default_matrix.yaml
var defaultMatrixYAML []byte

// Document is the on-disk matrix format. Resources maps resource → operation
// → allowed roles; the "all" operation key expands to read, write and delete.
// Rules add explicit triples, mostly deny overrides.
type Document struct {
	Resources map[string]map[string][]string `yaml:"resources"`
	Rules     []RuleDocument                 `yaml:"rules"`
}

// RuleDocument is a single explicit triple.
type RuleDocument struct {
	Role      string `yaml:"role"`
	Operation string `yaml:"operation"`
	Resource  string `yaml:"resource"`
	Effect    string `yaml:"effect"`
}

// DefaultMatrix returns the matrix shipped with the module.
func DefaultMatrix() *Matrix {
	doc, err := ParseDocument(defaultMatrixYAML)
	if err != nil {
		panic(fmt.Sprintf("permissions: embedded default matrix invalid: %v", err))
	}
	rules, err := doc.PermissionRules()
	if err != nil {
		panic(fmt.Sprintf("permissions: embedded default matrix invalid: %v", err))
	}
	return NewMatrix(rules)
}

// LoadMatrixFile reads a YAML matrix from disk.
func LoadMatrixFile(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return loadMatrix(data)
}

// LoadMatrix reads a YAML matrix from r.
func LoadMatrix(r io.Reader) (*Matrix, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return loadMatrix(data)
}

// ParseDocument decodes a YAML matrix document without validating it.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, invalidMatrix(err, "decode matrix yaml")
	}
	return doc, nil
}

func loadMatrix(data []byte) (*Matrix, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	rules, err := doc.PermissionRules()
	if err != nil {
		return nil, err
	}
	return NewMatrix(rules), nil
}

// PermissionRules validates the document and flattens it into rules.
func (d Document) PermissionRules() ([]types.PermissionRule, error) {
	rules := make([]types.PermissionRule, 0)
	for rawResource, ops := range d.Resources {
		resource, err := types.ParseResource(rawResource)
		if err != nil {
			return nil, invalidMatrix(err, fmt.Sprintf("resource %q", rawResource))
		}
		for rawOp, rawRoles := range ops {
			operations, err := parseOperations(rawOp)
			if err != nil {
				return nil, invalidMatrix(err, fmt.Sprintf("resource %q operation %q", rawResource, rawOp))
			}
			for _, rawRole := range rawRoles {
				role, err := parseRole(rawRole)
				if err != nil {
					return nil, invalidMatrix(err, fmt.Sprintf("resource %q role %q", rawResource, rawRole))
				}
				for _, op := range operations {
					rules = append(rules, types.PermissionRule{
						Role:      role,
						Operation: op,
						Resource:  resource,
						Effect:    types.EffectAllow,
					})
				}
			}
		}
	}
	for idx, raw := range d.Rules {
		expanded, err := raw.permissionRules()
		if err != nil {
			return nil, invalidMatrix(err, fmt.Sprintf("rules[%d]", idx))
		}
		rules = append(rules, expanded...)
	}
	return rules, nil
}

func (r RuleDocument) permissionRules() ([]types.PermissionRule, error) {
	role, err := parseRole(r.Role)
	if err != nil {
		return nil, err
	}
	resource, err := types.ParseResource(r.Resource)
	if err != nil {
		return nil, err
	}
	operations, err := parseOperations(r.Operation)
	if err != nil {
		return nil, err
	}
	effect := types.Effect(strings.ToLower(strings.TrimSpace(r.Effect)))
	switch effect {
	case "":
		effect = types.EffectAllow
	case types.EffectAllow, types.EffectDeny:
	default:
		return nil, fmt.Errorf("unknown effect %q", r.Effect)
	}
	out := make([]types.PermissionRule, 0, len(operations))
	for _, op := range operations {
		out = append(out, types.PermissionRule{
			Role:      role,
			Operation: op,
			Resource:  resource,
			Effect:    effect,
		})
	}
	return out, nil
}

func parseOperations(raw string) ([]types.OperationClass, error) {
	if strings.EqualFold(strings.TrimSpace(raw), operationAll) {
		return types.AllOperations(), nil
	}
	op, err := types.ParseOperation(raw)
	if err != nil {
		return nil, err
	}
	return []types.OperationClass{op}, nil
}

func parseRole(raw string) (types.RoleTag, error) {
	role, _ := types.NormalizeRole(raw)
	for _, known := range types.AllRoles() {
		if role == known {
			return role, nil
		}
	}
	return "", types.ErrUnknownRole
}

func invalidMatrix(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid permission matrix: "+msg).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(textCodeInvalidMatrix)
}
