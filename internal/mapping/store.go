package mapping

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/certpay/payroll-extractor/internal/common"
)

// Store persists mappings and output templates as flat files:
// <mappingsDir>/<name>.json and <templatesDir>/<name>.csv. Template
// files hold a single CSV header row.
type Store struct {
	mappingsDir  string
	templatesDir string
	logger       *slog.Logger
}

func NewStore(mappingsDir, templatesDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		mappingsDir:  mappingsDir,
		templatesDir: templatesDir,
		logger:       logger,
	}
}

func validateName(name string) error {
	return common.NewValidator().
		Field("name", name, common.Required, common.MaxLength(64), common.MappingName).
		Error()
}

// ListMappings returns the available mapping names, sorted.
func (s *Store) ListMappings() ([]string, error) {
	return listByExt(s.mappingsDir, ".json")
}

// ListTemplates returns the available template names, sorted.
func (s *Store) ListTemplates() ([]string, error) {
	return listByExt(s.templatesDir, ".csv")
}

func listByExt(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		base := e.Name()
		if !strings.EqualFold(filepath.Ext(base), ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	sort.Strings(names)
	return names, nil
}

// GetMapping loads and validates one mapping by name.
func (s *Store) GetMapping(name string) (*Mapping, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	path := filepath.Join(s.mappingsDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.NewAppError("MAPPING_NOT_FOUND",
				fmt.Sprintf("mapping %q does not exist", name), common.ErrMappingNotFound)
		}
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	if err := ValidateMappingJSON(data); err != nil {
		return nil, common.NewAppError("MAPPING_INVALID",
			fmt.Sprintf("mapping %q is not valid: %v", name, err), common.ErrValidation)
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode mapping %s: %w", path, err)
	}
	return &m, nil
}

// PutMapping writes a mapping to disk, creating the directory on
// first use.
func (s *Store) PutMapping(name string, m *Mapping) error {
	if err := validateName(name); err != nil {
		return err
	}
	if m.Len() == 0 {
		return common.NewAppError("MAPPING_INVALID", "mapping has no pairs", common.ErrValidation)
	}
	if err := os.MkdirAll(s.mappingsDir, 0o755); err != nil {
		return fmt.Errorf("create mappings dir: %w", err)
	}
	data, err := m.EncodeIndented()
	if err != nil {
		return fmt.Errorf("encode mapping %s: %w", name, err)
	}
	path := filepath.Join(s.mappingsDir, name+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write mapping %s: %w", path, err)
	}
	s.logger.Info("mapping saved", "name", name, "pairs", m.Len())
	return nil
}

// GetTemplate loads a template's column headers by name.
func (s *Store) GetTemplate(name string) ([]string, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	path := filepath.Join(s.templatesDir, name+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.NewAppError("TEMPLATE_NOT_FOUND",
				fmt.Sprintf("template %q does not exist", name), common.ErrTemplateNotFound)
		}
		return nil, fmt.Errorf("open template %s: %w", path, err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, common.NewAppError("TEMPLATE_INVALID",
			fmt.Sprintf("template %q has no header row", name), common.ErrValidation)
	}
	return header, nil
}

// PutTemplate writes a header-only template CSV.
func (s *Store) PutTemplate(name string, columns []string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if len(columns) == 0 {
		return common.NewAppError("TEMPLATE_INVALID", "template has no columns", common.ErrValidation)
	}
	if err := os.MkdirAll(s.templatesDir, 0o755); err != nil {
		return fmt.Errorf("create templates dir: %w", err)
	}
	path := filepath.Join(s.templatesDir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create template %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		f.Close()
		return fmt.Errorf("write template %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush template %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close template %s: %w", path, err)
	}
	s.logger.Info("template saved", "name", name, "columns", len(columns))
	return nil
}
