package node

import (
	"fmt"
	"strings"
)

// BuildVariationBlock 多版本生成时追加的差异化指令；单版本时为空。
// index 从 0 开始。
func BuildVariationBlock(index, total int) string {
	if total <= 1 {
		return ""
	}
	return fmt.Sprintf("This is variation %d of %d. Please ensure this variation is unique and different from other variations.", index+1, total)
}

// BuildBrandBlock 品牌名为空时不输出该行
func BuildBrandBlock(brand string) string {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return ""
	}
	return "Brand Name: " + brand
}
