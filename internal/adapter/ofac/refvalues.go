package ofac

import "strings"

// ReferenceMap 文档级引用值表：refId -> 展示文本
// OFAC Enhanced XML 把类型、计划名、国别等都编码成refId，指向文档头部的referenceValues段；
// 每份文档构建一次，按参数传入各解析环节，不做全局状态
type ReferenceMap map[string]string

func buildReferenceMap(values []referenceValue) ReferenceMap {
	m := make(ReferenceMap, len(values))
	for _, v := range values {
		id := strings.TrimSpace(v.RefID)
		val := strings.TrimSpace(v.Value)
		if id != "" && val != "" {
			m[id] = val
		}
	}
	return m
}

// Resolve 查表返回展示文本；缺失映射时降级为原始编码token，绝不因此中断解析
func (m ReferenceMap) Resolve(refID, fallback string) string {
	if v, ok := m[strings.TrimSpace(refID)]; ok {
		return v
	}
	return strings.TrimSpace(fallback)
}
