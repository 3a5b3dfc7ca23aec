// Package template resolves platform spreadsheet templates and stamps
// link batches into fresh copies of them.
package template

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"linkbatch/internal/model"
)

var (
	// ErrTemplateNotFound means no template file was found for a platform
	// at any configured location and no override has been uploaded.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrSheetNotFound means a template workbook lacks the sheet the
	// platform's documents are generated from.
	ErrSheetNotFound = errors.New("sheet not found in template")
)

// sheetNames binds each platform to the worksheet its links are written to.
var sheetNames = map[model.Platform]string{
	model.PlatformInstagram: "category ig",
	model.PlatformTikTok:    "category tt",
}

// SheetName returns the target worksheet for a platform.
func SheetName(p model.Platform) string { return sheetNames[p] }

type entry struct {
	data     []byte
	source   string
	override bool
}

// Info describes one registry entry for listing endpoints.
type Info struct {
	Platform model.Platform `json:"platform"`
	Sheet    string         `json:"sheet"`
	Source   string         `json:"source"`
	Override bool           `json:"override"`
	Size     int            `json:"size"`
	Loaded   bool           `json:"loaded"`
}

// Registry holds template workbooks in memory, keyed by platform.
// Templates are resolved once at startup from a configured search-path
// list; uploaded overrides replace the in-memory snapshot and never touch
// the filesystem, so concurrent runs cannot interfere through shared files.
type Registry struct {
	mu      sync.RWMutex
	entries map[model.Platform]*entry
}

// NewRegistry probes each platform's candidate paths in order and loads
// the first existing file into memory. A platform with no template on disk
// stays unresolved until an override is uploaded; Resolve reports it.
func NewRegistry(searchPaths map[model.Platform][]string) *Registry {
	r := &Registry{entries: make(map[model.Platform]*entry)}
	for platform, paths := range searchPaths {
		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			r.entries[platform] = &entry{data: data, source: path}
			break
		}
	}
	return r
}

// Resolve returns the template bytes and target sheet name for a platform.
func (r *Registry) Resolve(p model.Platform) ([]byte, string, error) {
	sheet, ok := sheetNames[p]
	if !ok {
		return nil, "", fmt.Errorf("%w: unsupported platform %q", ErrTemplateNotFound, p)
	}

	r.mu.RLock()
	e := r.entries[p]
	r.mu.RUnlock()

	if e == nil {
		return nil, "", fmt.Errorf("%w for %s: place the template at a configured path or upload one", ErrTemplateNotFound, p)
	}
	return e.data, sheet, nil
}

// SetOverride installs an uploaded template for a platform after checking
// that it is a readable workbook containing the platform's target sheet.
func (r *Registry) SetOverride(p model.Platform, data []byte) error {
	sheet, ok := sheetNames[p]
	if !ok {
		return fmt.Errorf("%w: unsupported platform %q", ErrTemplateNotFound, p)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("open uploaded template: %w", err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return fmt.Errorf("inspect uploaded template: %w", err)
	}
	if idx < 0 {
		return fmt.Errorf("%w: uploaded %s template has no sheet %q", ErrSheetNotFound, p, sheet)
	}

	r.mu.Lock()
	r.entries[p] = &entry{data: data, source: "upload", override: true}
	r.mu.Unlock()
	return nil
}

// List reports the state of every supported platform's template.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(sheetNames))
	for _, p := range model.Platforms() {
		info := Info{Platform: p, Sheet: sheetNames[p]}
		if e := r.entries[p]; e != nil {
			info.Source = e.source
			info.Override = e.override
			info.Size = len(e.data)
			info.Loaded = true
		}
		infos = append(infos, info)
	}
	return infos
}
