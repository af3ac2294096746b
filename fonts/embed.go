// Package fonts 提供内置的 Latin Modern Roman 字体，作为四种字体变体的默认来源。
package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
)

var builtin = map[string][]byte{
	"regular":     lmroman10regular.TTF,
	"bold":        lmroman10bold.TTF,
	"italic":      lmroman10italic.TTF,
	"bold-italic": lmroman10bolditalic.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:bold" 或直接 "bold"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimPrefix(name, "embed:"))
	data, ok := builtin[key]
	if !ok || len(data) == 0 {
		return nil, fmt.Errorf("内置字体 %s 不存在，可用：%s", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Names 返回所有内置字体名。
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
