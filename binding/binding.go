// Package binding 展开文本中的 ${path} 占位符，用于简历副标题与输出文件名。
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Expand 将文本中的 ${path.to.value} 替换为 data 中的值，
// 缺失的路径替换为空字符串，页眉副标题与输出文件名中不会残留占位符。
func Expand(text string, data any) string {
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 || data == nil {
			return ""
		}
		path := strings.TrimSpace(groups[1])
		if path == "" {
			return ""
		}
		if val, ok := resolvePath(data, path); ok && val != nil {
			return fmt.Sprint(val)
		}
		return ""
	})
}

// Placeholders 按出现顺序返回模板中引用的路径（去重）。
func Placeholders(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, groups := range exprPattern.FindAllStringSubmatch(text, -1) {
		path := strings.TrimSpace(groups[1])
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	return out
}

// resolvePath 沿 a.b[0].c 形式的路径逐级取值：键用于 map，整数用于切片。
func resolvePath(data any, path string) (any, bool) {
	keys := strings.FieldsFunc(path, func(r rune) bool { return r == '.' || r == '[' || r == ']' })
	if len(keys) == 0 {
		return nil, false
	}
	current := data
	for _, key := range keys {
		next, ok := descend(current, strings.TrimSpace(key))
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func descend(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	case []any:
		return index(c, key)
	case []string:
		return index(c, key)
	default:
		return nil, false
	}
}

func index[T any](list []T, key string) (any, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= len(list) {
		return nil, false
	}
	return list[i], true
}
