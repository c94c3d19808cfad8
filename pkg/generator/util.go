package generator

import "strings"

// firstNonEmpty は空白以外を含む最初の値を返します。
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
