// Package entity 定义领域实体
package entity

import (
	"fmt"
	"strings"
)

// ScriptRequest 视频脚本生成请求（只读输入）
type ScriptRequest struct {
	ProductName    string `json:"product_name"`
	Description    string `json:"description"`
	Duration       string `json:"duration"`
	TargetAudience string `json:"target_audience"`
	Language       string `json:"language"`
	BrandName      string `json:"brand_name"`
	Tone           string `json:"tone"`
	AdType         string `json:"ad_type"`
	Variations     int    `json:"variations"`

	// Model 覆盖提供商默认模型；Provider 选择 llm.providers 中的条目
	Model    string `json:"model,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// 请求字段默认值
const (
	DefaultDuration       = "60 seconds"
	DefaultTargetAudience = "general audience"
	DefaultLanguage       = "English"
	DefaultTone           = "professional and inspiring"
	DefaultAdType         = "product showcase"
)

// WithDefaults 返回填充默认值后的副本
func (r ScriptRequest) WithDefaults() ScriptRequest {
	if strings.TrimSpace(r.Duration) == "" {
		r.Duration = DefaultDuration
	}
	if strings.TrimSpace(r.TargetAudience) == "" {
		r.TargetAudience = DefaultTargetAudience
	}
	if strings.TrimSpace(r.Language) == "" {
		r.Language = DefaultLanguage
	}
	if strings.TrimSpace(r.Tone) == "" {
		r.Tone = DefaultTone
	}
	if strings.TrimSpace(r.AdType) == "" {
		r.AdType = DefaultAdType
	}
	if r.Variations == 0 {
		r.Variations = 1
	}
	return r
}

// Validate 校验请求必填字段
func (r ScriptRequest) Validate(maxVariations int) error {
	if strings.TrimSpace(r.ProductName) == "" {
		return fmt.Errorf("product_name is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if r.Variations < 1 {
		return fmt.Errorf("variations must be >= 1, got %d", r.Variations)
	}
	if maxVariations > 0 && r.Variations > maxVariations {
		return fmt.Errorf("variations must be <= %d, got %d", maxVariations, r.Variations)
	}
	return nil
}

// Scene 单个镜头
type Scene struct {
	SceneNumber   int      `json:"scene_number"`
	Visual        string   `json:"visual"`
	Caption       string   `json:"caption"`
	MusicSFX      string   `json:"music_sfx"`
	SearchQueries []string `json:"search_queries"`
}

// VoiceoverSection 一段旁白及其覆盖的镜头（顺序即播放顺序）
type VoiceoverSection struct {
	Voiceover string  `json:"voiceover"`
	Scenes    []Scene `json:"scenes"`
}

// ScriptVariation 一个可独立播放的候选脚本
type ScriptVariation struct {
	VoiceoverSections []VoiceoverSection `json:"voiceover_sections"`
	Keywords          []string           `json:"stock_footage_keywords"`
}

// SceneCount 返回所有段落的镜头总数
func (v ScriptVariation) SceneCount() int {
	n := 0
	for _, s := range v.VoiceoverSections {
		n += len(s.Scenes)
	}
	return n
}

// Validate 校验脚本结构：
// 至少一个段落；每段旁白非空且至少一个镜头；
// 镜头编号从 1 起跨段严格递增；每个镜头至少一个非空检索词。
func (v ScriptVariation) Validate() error {
	if len(v.VoiceoverSections) == 0 {
		return fmt.Errorf("voiceover_sections is empty")
	}
	last := 0
	for i, sec := range v.VoiceoverSections {
		if strings.TrimSpace(sec.Voiceover) == "" {
			return fmt.Errorf("voiceover_sections[%d].voiceover is empty", i)
		}
		if len(sec.Scenes) == 0 {
			return fmt.Errorf("voiceover_sections[%d].scenes is empty", i)
		}
		for j, sc := range sec.Scenes {
			if sc.SceneNumber < 1 {
				return fmt.Errorf("voiceover_sections[%d].scenes[%d].scene_number must be >= 1, got %d", i, j, sc.SceneNumber)
			}
			if last == 0 && sc.SceneNumber != 1 {
				return fmt.Errorf("voiceover_sections[%d].scenes[%d].scene_number must start at 1, got %d", i, j, sc.SceneNumber)
			}
			if sc.SceneNumber <= last {
				return fmt.Errorf("voiceover_sections[%d].scenes[%d].scene_number %d is not greater than %d", i, j, sc.SceneNumber, last)
			}
			last = sc.SceneNumber
			if !hasNonBlank(sc.SearchQueries) {
				return fmt.Errorf("voiceover_sections[%d].scenes[%d].search_queries is empty", i, j)
			}
		}
	}
	return nil
}

// NormalizeQueries 去除空白检索词并保持原有顺序
func NormalizeQueries(queries []string) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

func hasNonBlank(ss []string) bool {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}
