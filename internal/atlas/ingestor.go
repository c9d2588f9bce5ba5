package atlas

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ironsheep/atlas-prep-mcp/internal/imaging"
)

// Ingestor collects processed rectangles for one atlas.
//
// The rectangle list and the alias index change together under a single lock,
// so images may be added from several goroutines. Identical content submitted
// concurrently always ends up as one rectangle plus aliases.
type Ingestor struct {
	codec    imaging.Codec
	settings Settings
	root     string

	mu     sync.Mutex
	scale  float64
	rects  []*Rect
	hashes map[string]*Rect
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithCodec replaces the codec used to read source files.
func WithCodec(codec imaging.Codec) Option {
	return func(g *Ingestor) { g.codec = codec }
}

// WithScale sets the initial scale factor.
func WithScale(scale float64) Option {
	return func(g *Ingestor) { g.scale = scale }
}

// New creates an Ingestor. rootDir, when not empty, is stripped from the front
// of every file path to form logical names; files outside it are rejected.
func New(rootDir string, settings Settings, opts ...Option) (*Ingestor, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	g := &Ingestor{
		codec:    imaging.DefaultCodec{},
		settings: settings,
		scale:    1,
		hashes:   make(map[string]*Rect),
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := validateScale(g.scale); err != nil {
		return nil, err
	}
	if rootDir != "" {
		abs, err := filepath.Abs(rootDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root directory: %w", err)
		}
		g.root = toSlash(abs)
		if !strings.HasSuffix(g.root, "/") {
			g.root += "/"
		}
	}
	return g, nil
}

// Settings returns the settings the ingestor was created with.
func (g *Ingestor) Settings() Settings {
	return g.settings
}

// Root returns the normalized root prefix, or "" when none is set.
func (g *Ingestor) Root() string {
	return g.root
}

// SetScale sets the factor applied to images added from now on. Rectangles
// already registered keep their size.
func (g *Ingestor) SetScale(scale float64) error {
	if err := validateScale(scale); err != nil {
		return err
	}
	g.mu.Lock()
	g.scale = scale
	g.mu.Unlock()
	return nil
}

// Scale returns the current scale factor.
func (g *Ingestor) Scale() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scale
}

// Images returns the accepted rectangles in insertion order.
func (g *Ingestor) Images() []*Rect {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Rect, len(g.rects))
	copy(out, g.rects)
	return out
}

// Clear drops every rectangle and the alias index. The scale is kept.
func (g *Ingestor) Clear() {
	g.mu.Lock()
	g.rects = nil
	g.hashes = make(map[string]*Rect)
	g.mu.Unlock()
}

// AddFile decodes the image at path and adds it under its logical name: the
// absolute, '/'-separated path with the root prefix and the extension removed.
//
// With LimitMemory set, an added rectangle releases its pixels and keeps only
// its Source path.
func (g *Ingestor) AddFile(path string) (Result, error) {
	p, err := g.prepareFile(path)
	if err != nil {
		return Result{}, err
	}
	return g.commit(p), nil
}

// AddImage adds an already decoded image. name is the logical name, without a
// file extension. The pixels are always kept in memory.
func (g *Ingestor) AddImage(img image.Image, name string) (Result, error) {
	p, err := g.prepare(img, name)
	if err != nil {
		return Result{}, fmt.Errorf("failed to process %s: %w", name, err)
	}
	return g.commit(p), nil
}

// Pixels returns the processed pixels of rect, decoding and processing its
// source file again when they were released.
func (g *Ingestor) Pixels(rect *Rect) (*image.NRGBA, error) {
	g.mu.Lock()
	img, source, scale := rect.image, rect.Source, rect.scale
	g.mu.Unlock()

	if img != nil {
		return img, nil
	}
	if source == "" {
		return nil, fmt.Errorf("rectangle %s has no pixels and no source file", rect.Name)
	}

	_, name, err := g.logicalName(source)
	if err != nil {
		return nil, err
	}
	decoded, err := imaging.DecodeFile(g.codec, source)
	if err != nil {
		return nil, err
	}
	again, err := Normalizer{Settings: g.settings, Scale: scale}.Process(decoded, name)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", source, err)
	}
	if again == nil {
		return nil, fmt.Errorf("source %s no longer produces an image", source)
	}
	return again.image, nil
}

type prepared struct {
	rect   *Rect
	hash   string
	source string
}

func (g *Ingestor) prepareFile(path string) (*prepared, error) {
	abs, name, err := g.logicalName(path)
	if err != nil {
		return nil, err
	}
	img, err := imaging.DecodeFile(g.codec, abs)
	if err != nil {
		return nil, err
	}
	p, err := g.prepare(img, name)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", abs, err)
	}
	p.source = abs
	return p, nil
}

// prepare runs everything that does not touch shared state.
func (g *Ingestor) prepare(img image.Image, name string) (*prepared, error) {
	if img == nil {
		return nil, errors.New("image is nil")
	}
	n := Normalizer{Settings: g.settings, Scale: g.Scale()}
	rect, err := n.Process(img, name)
	if err != nil {
		return nil, err
	}
	p := &prepared{rect: rect}
	if rect != nil && g.settings.Alias {
		p.hash = Hash(rect.image)
	}
	return p, nil
}

// commit registers a prepared image. The alias lookup, index insert and list
// append happen under one lock.
func (g *Ingestor) commit(p *prepared) Result {
	if p.rect == nil {
		return Result{Status: StatusSkipped}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	rect := p.rect
	if g.settings.Alias {
		if existing, ok := g.hashes[p.hash]; ok {
			existing.Aliases = append(existing.Aliases, newAlias(rect))
			return Result{Rect: existing, Status: StatusAliased}
		}
		g.hashes[p.hash] = rect
	}

	rect.Source = p.source
	if g.settings.LimitMemory && p.source != "" {
		rect.image = nil
	}
	g.rects = append(g.rects, rect)
	return Result{Rect: rect, Status: StatusAdded}
}

// logicalName returns the absolute path of a source file and the name it is
// registered under.
func (g *Ingestor) logicalName(path string) (abs, name string, err error) {
	abs, err = filepath.Abs(path)
	if err != nil {
		return "", "", &PathError{Path: path, Err: err}
	}
	name = toSlash(abs)
	if g.root != "" {
		if !strings.HasPrefix(name, g.root) {
			return "", "", &PathError{Path: name, Root: g.root}
		}
		name = name[len(g.root):]
	}
	return abs, stripExtension(name), nil
}

func toSlash(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), `\`, "/")
}

// stripExtension removes the last '.'-delimited segment of the final path
// element. Dots in directory names are left alone.
func stripExtension(name string) string {
	slash := strings.LastIndexByte(name, '/')
	if dot := strings.LastIndexByte(name, '.'); dot > slash {
		return name[:dot]
	}
	return name
}
