package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrRuleNotFound     = errors.New("rule not found")
	ErrCategoryNotFound = errors.New("rule category not found")
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidSlug      = errors.New("invalid slug")
	ErrSlugTaken        = errors.New("slug already in use")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// slug 只允许小写字母、数字和连字符，1~80 位
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const maxSlugLen = 80

// NormalizeSlug 统一小写并去掉首尾空白。存储和比较都用规整后的形式。
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("%w: slug", ErrMissingField)
	}
	if len(slug) > maxSlugLen || !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// ValidateRule 做写入前的字段校验。只查必填和格式，
// 唯一性、分类存在性这类要查库的校验在 service 里做。
func ValidateRule(r *Rule) error {
	if r == nil {
		return fmt.Errorf("%w: rule", ErrMissingField)
	}
	if err := ValidateSlug(r.Slug); err != nil {
		return err
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title", ErrMissingField)
	}
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("%w: category", ErrMissingField)
	}
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("%w: summary", ErrMissingField)
	}
	if len(r.Tags) == 0 {
		return fmt.Errorf("%w: tags", ErrMissingField)
	}
	return nil
}

func ValidateCategory(c *RuleCategory) error {
	if c == nil {
		return fmt.Errorf("%w: category", ErrMissingField)
	}
	if err := ValidateSlug(c.Slug); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	return nil
}
