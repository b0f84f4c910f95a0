package barcode

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"
)

// profile is a named settings record loaded from a template.
type profile struct {
	settings RuntimeSettings
	args     modeArgs
}

// Reader is the engine handle. It is not safe for concurrent use.
type Reader struct {
	settings RuntimeSettings
	args     modeArgs
	profiles map[string]profile
	licensed bool
	logger   *slog.Logger
	pdfPages string
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for decode diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithPDFPages restricts PDF input to a page range such as "1-3,5".
func WithPDFPages(pages string) Option {
	return func(r *Reader) { r.pdfPages = pages }
}

// NewReader returns a reader holding the engine defaults.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		settings: DefaultRuntimeSettings(),
		args:     modeArgs{},
		profiles: map[string]profile{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetLicensed records the outcome of license initialization.
func (r *Reader) SetLicensed(ok bool) { r.licensed = ok }

// GetRuntimeSettings returns a copy of the committed settings.
func (r *Reader) GetRuntimeSettings() RuntimeSettings { return r.settings }

// UpdateRuntimeSettings validates and commits s. Mode arguments of slots
// whose mode changed are reset.
func (r *Reader) UpdateRuntimeSettings(s RuntimeSettings) error {
	if err := s.validate(); err != nil {
		return err
	}
	r.args.dropChangedSlots(r.settings, s)
	r.settings = s
	return nil
}

// ResetRuntimeSettings restores the defaults and drops loaded profiles.
func (r *Reader) ResetRuntimeSettings() {
	r.settings = DefaultRuntimeSettings()
	r.args = modeArgs{}
	r.profiles = map[string]profile{}
}

// SetModeArgument sets an argument of the mode held by list[index] in the
// committed settings.
func (r *Reader) SetModeArgument(list string, index int, name, value string) error {
	return r.args.setArg(r.settings, list, index, name, value)
}

// GetModeArgument returns the effective argument value of list[index].
func (r *Reader) GetModeArgument(list string, index int, name string) (int, error) {
	n := listLen(list)
	if n == 0 || index < 0 || index >= n {
		return 0, newError(ErrModeArgumentInvalid, "invalid mode slot %s[%d]", list, index)
	}
	for _, spec := range argSpecs {
		if spec.list == list && strings.EqualFold(spec.name, name) {
			return r.args.get(list, index, spec.name), nil
		}
	}
	return 0, newError(ErrModeArgumentInvalid, "unknown argument %q for %s", name, list)
}

// InitRuntimeSettingsWithFile resets the reader to defaults and applies the
// template at path.
func (r *Reader) InitRuntimeSettingsWithFile(path string, mode ConflictMode) error {
	data, err := readTemplateFile(path)
	if err != nil {
		return err
	}
	return r.InitRuntimeSettingsWithString(data, templateFormatForPath(path), mode)
}

// InitRuntimeSettingsWithString resets the reader to defaults and applies
// the template in data. On error the reader is left unchanged.
func (r *Reader) InitRuntimeSettingsWithString(data []byte, format TemplateFormat, mode ConflictMode) error {
	settings, args, profiles, err := mergeTemplate(DefaultRuntimeSettings(), modeArgs{}, map[string]profile{}, data, format, mode)
	if err != nil {
		return err
	}
	r.settings, r.args, r.profiles = settings, args, profiles
	return nil
}

// AppendTemplateFile merges the template at path into the current state.
func (r *Reader) AppendTemplateFile(path string, mode ConflictMode) error {
	data, err := readTemplateFile(path)
	if err != nil {
		return err
	}
	return r.AppendTemplateString(data, templateFormatForPath(path), mode)
}

// AppendTemplateString merges the template in data into the current state.
func (r *Reader) AppendTemplateString(data []byte, format TemplateFormat, mode ConflictMode) error {
	settings, args, profiles, err := mergeTemplate(r.settings, r.args, r.profiles, data, format, mode)
	if err != nil {
		return err
	}
	r.settings, r.args, r.profiles = settings, args, profiles
	return nil
}

// ProfileNames lists the loaded template names in sorted order.
func (r *Reader) ProfileNames() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecodeFile decodes every barcode in the image or PDF at path using the
// named profile, or the committed settings when name is empty. A settings
// timeout yields the results found so far without an error.
func (r *Reader) DecodeFile(ctx context.Context, path, name string) ([]Result, error) {
	settings, args := r.settings, r.args
	if name != "" {
		p, ok := r.profiles[name]
		if !ok {
			return nil, newError(ErrTemplateNameInvalid, "no template named %q", name)
		}
		settings, args = p.settings, p.args
	}
	if !r.licensed {
		r.logger.Warn("decoding without a verified license", "file", path)
	}

	pages, err := loadPages(path, r.pdfPages)
	if err != nil {
		return nil, err
	}

	decodeCtx := ctx
	if settings.Timeout > 0 {
		var cancel context.CancelFunc
		decodeCtx, cancel = context.WithTimeout(ctx, time.Duration(settings.Timeout)*time.Millisecond)
		defer cancel()
	}

	results := []Result{}
	for _, pg := range pages {
		job := newDecodeJob(settings, args)
		found := job.run(decodeCtx, pg.img)
		for i := range found {
			found[i].Page = pg.number
		}
		results = append(results, found...)
		r.logger.Debug("decoded page", "source", describePage(path, pg), "results", len(found), "passes", job.passes)
		if decodeCtx.Err() != nil {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	if errors.Is(decodeCtx.Err(), context.DeadlineExceeded) {
		r.logger.Info("decode timeout reached", "file", path, "timeout_ms", settings.Timeout, "results", len(results))
	}
	return results, nil
}

func readTemplateFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, wrapError(ErrFileNotFound, err, "template %s not found", path)
	}
	if err != nil {
		return nil, wrapError(ErrJSONParseFailed, err, "read template %s", path)
	}
	return data, nil
}

// mergeTemplate applies a template on copies of the given state. The first
// parameter updates the current settings; every parameter becomes a named
// profile.
func mergeTemplate(
	settings RuntimeSettings, args modeArgs, profiles map[string]profile,
	data []byte, format TemplateFormat, mode ConflictMode,
) (RuntimeSettings, modeArgs, map[string]profile, error) {
	if mode != ConflictIgnore && mode != ConflictOverwrite {
		return settings, args, profiles, newError(ErrParameterValueInvalid, "invalid conflict mode %d", int(mode))
	}
	tpl, err := parseTemplate(data, format)
	if err != nil {
		return settings, args, profiles, err
	}
	params := tpl.parameters()
	if len(params) == 0 {
		return settings, args, profiles, newError(ErrJSONKeyInvalid, "template has no ImageParameter")
	}

	nextSettings := settings
	nextArgs := args.clone()
	nextProfiles := make(map[string]profile, len(profiles)+len(params))
	for k, v := range profiles {
		nextProfiles[k] = v
	}

	for i, p := range params {
		if p.Name == "" {
			return settings, args, profiles, newError(ErrJSONKeyInvalid, "ImageParameter %d has no Name", i)
		}
		if _, exists := nextProfiles[p.Name]; !exists || mode == ConflictOverwrite {
			ps, pa := DefaultRuntimeSettings(), modeArgs{}
			if err := applyParameter(&ps, pa, p, ConflictOverwrite); err != nil {
				return settings, args, profiles, err
			}
			if err := ps.validate(); err != nil {
				return settings, args, profiles, err
			}
			nextProfiles[p.Name] = profile{settings: ps, args: pa}
		}
		if i == 0 {
			if err := applyParameter(&nextSettings, nextArgs, p, mode); err != nil {
				return settings, args, profiles, err
			}
		}
	}
	if err := nextSettings.validate(); err != nil {
		return settings, args, profiles, err
	}
	return nextSettings, nextArgs, nextProfiles, nil
}
