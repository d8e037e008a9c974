package entity

// FootageAsset 素材库检索命中的视频素材；nil 表示未找到
type FootageAsset struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	PreviewURL  string `json:"preview_url"`
	DownloadURL string `json:"download_url"`
	Note        string `json:"note,omitempty"`
}

// IsPlaceholder 是否为未配置凭证时的演示素材
func (a *FootageAsset) IsPlaceholder() bool {
	return a != nil && a.Note != ""
}

// VoiceoverAsset 旁白音频
type VoiceoverAsset struct {
	URL  string `json:"url"`
	Text string `json:"text"`
	Note string `json:"note,omitempty"`
}

// MusicAsset 背景音乐
type MusicAsset struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// EnrichedScene 镜头及其解析出的素材
type EnrichedScene struct {
	Scene
	Footage *FootageAsset `json:"stock_footage"`
}

// EnrichedSection 补全后的段落
type EnrichedSection struct {
	Voiceover       string          `json:"voiceover"`
	Scenes          []EnrichedScene `json:"scenes"`
	VoiceoverAudio  VoiceoverAsset  `json:"voiceover_audio"`
	BackgroundMusic *MusicAsset     `json:"background_music,omitempty"`
}

// EnrichedScript 补全后的完整脚本（原脚本不被修改）
type EnrichedScript struct {
	VoiceoverSections []EnrichedSection `json:"voiceover_sections"`
	Keywords          []string          `json:"stock_footage_keywords"`
}
