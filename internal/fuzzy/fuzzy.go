// Package fuzzy 模糊姓名比对引擎：归一化 + token排序相似度打分（0-100）
// 比对口径对音译、词序、标点差异保持宽容，筛查场景漏报代价高于误报
package fuzzy

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold 模糊命中的默认分数阈值
const DefaultThreshold = 80

var (
	// 保留任意文字系统的字母/数字/下划线与空白，其余（标点、符号）全部剔除
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
	// NFD分解后剔除组合变音符：José 与 Jose 归一化后等值
	diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalize 归一化：小写、折叠变音符、剔除标点、压缩空白。幂等：Normalize(Normalize(s))==Normalize(s)
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	if folded, _, err := transform.String(diacriticFolder, s); err == nil {
		s = folded
	}
	s = nonWordRe.ReplaceAllString(s, "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// tokenSort 按空白切词、字典序排序后以单空格重组，抹平词序差异
func tokenSort(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// Similarity token排序相似度，闭区间[0,100]：token排序后等值得100，完全不相交趋近0
func Similarity(a, b string) int {
	sa := tokenSort(Normalize(a))
	sb := tokenSort(Normalize(b))
	if sa == sb {
		return 100
	}
	if sa == "" || sb == "" {
		return 0
	}
	dist := levenshtein.ComputeDistance(sa, sb)
	la, lb := len([]rune(sa)), len([]rune(sb))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	score := int(float64(100)*(1-float64(dist)/float64(maxLen)) + 0.5)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// BestMatch 取查询串与一组候选名的最高分及其命中名；同分保留先出现者（稳定并列规则）
func BestMatch(query string, names []string) (int, string) {
	best, matched := 0, ""
	for _, name := range names {
		if name == "" {
			continue
		}
		if score := Similarity(query, name); score > best {
			best, matched = score, name
		}
	}
	return best, matched
}
