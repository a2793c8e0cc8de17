package adapter

import (
	"fmt"

	"SanctionsSync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// ========== 全局工厂函数注册表（依赖interfaces包） ==========
// key 为小写来源名（ofac/un/eu/uk），各适配器包在init中注册
var factoryRegistry = make(map[string]interfaces.Factory)

// Register 供适配器init函数调用，注册工厂函数
func Register(source string, factory interfaces.Factory) {
	if factory == nil {
		panic(fmt.Sprintf("来源%s的工厂函数不能为nil", source))
	}
	if _, exists := factoryRegistry[source]; exists {
		logrus.Warnf("来源%s的适配器已注册，将覆盖原有实现", source)
	}
	factoryRegistry[source] = factory
}

// GetFactory 获取指定来源的工厂函数
func GetFactory(source string) (interfaces.Factory, bool) {
	factory, ok := factoryRegistry[source]
	return factory, ok
}

// ListFactories 列出所有已注册的来源
func ListFactories() []string {
	var sources []string
	for s := range factoryRegistry {
		sources = append(sources, s)
	}
	return sources
}
