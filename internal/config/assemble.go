package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"subjectsplit/internal/pipeline"
	"subjectsplit/pkg/contract"
	"subjectsplit/pkg/registry"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	trans        ut.Translator
)

// structValidator 构造带英文翻译的校验器；字段名使用 json 标签。
func structValidator() (*validator.Validate, ut.Translator) {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return strings.ToLower(fld.Name)
			}
			return name
		})
		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		validate = v
	})
	return validate, trans
}

// Validate 对最小必要边界做静态校验。错误包裹 contract.ErrConfigInvalid。
func Validate(cfg Config) error {
	v, tr := structValidator()
	if err := v.Struct(cfg); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fe.Translate(tr))
			}
			sort.Strings(msgs)
			return fmt.Errorf("%w: %s", contract.ErrConfigInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", contract.ErrConfigInvalid, err)
	}
	// 组件名若为空，使用默认名（由 Defaults() 提供）。此处只要最终有值即可。
	d := Defaults()
	if name := effName(cfg.Components.Reader, d.Components.Reader); registry.Reader[name] == nil {
		return fmt.Errorf("%w: reader %q not registered", contract.ErrConfigInvalid, name)
	}
	if name := effName(cfg.Components.Encoder, d.Components.Encoder); registry.Encoder[name] == nil {
		return fmt.Errorf("%w: encoder %q not registered", contract.ErrConfigInvalid, name)
	}
	if name := effName(cfg.Components.Writer, d.Components.Writer); registry.Writer[name] == nil {
		return fmt.Errorf("%w: writer %q not registered", contract.ErrConfigInvalid, name)
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry （工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}

	// 有效名称
	d := Defaults()
	rn := effName(cfg.Components.Reader, d.Components.Reader)
	cn := effName(cfg.Components.Encoder, d.Components.Encoder)
	wn := effName(cfg.Components.Writer, d.Components.Writer)

	ropts, wopts := cfg.Options.Reader, cfg.Options.Writer
	var err error
	if cfg.Schema != "" {
		if ropts, err = withKey(ropts, "schema", cfg.Schema); err != nil {
			return pipeline.Components{}, pipeline.Settings{}, optionsErr("reader", err)
		}
	}
	if cfg.OutputDir != "" {
		if wopts, err = withKey(wopts, "output_dir", cfg.OutputDir); err != nil {
			return pipeline.Components{}, pipeline.Settings{}, optionsErr("writer", err)
		}
	}

	// 构造实例
	r, err := registry.Reader[rn](ropts)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, optionsErr("reader", err)
	}
	enc, err := registry.Encoder[cn](cfg.Options.Encoder)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, optionsErr("encoder", err)
	}
	w, err := registry.Writer[wn](wopts)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, optionsErr("writer", err)
	}

	set := pipeline.Settings{
		Input:     cfg.Input,
		SortYears: cfg.SortYears != nil && *cfg.SortYears,
		OutputDir: ".",
	}
	if rt, ok := w.(interface{ Root() string }); ok {
		set.OutputDir = rt.Root()
	}
	return pipeline.Components{Reader: r, Encoder: enc, Writer: w}, set, nil
}

func optionsErr(comp string, err error) error {
	return fmt.Errorf("%w: options.%s: %w", contract.ErrConfigInvalid, comp, err)
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
