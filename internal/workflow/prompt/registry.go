// Package prompt 管理内嵌的 Prompt 模板
package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// PromptID 模板标识，对应 templates/{id}.system.txt 与 templates/{id}.user.txt
type PromptID string

const (
	PromptScriptGenV1 PromptID = "script_gen_v1"
	PromptKeywordsV1  PromptID = "keywords_v1"
)

// Registry 首次使用时扫描 templates 目录，按 ID 提供 FString 格式的 ChatTemplate
type Registry struct {
	once      sync.Once
	templates map[PromptID]einoprompt.ChatTemplate
	err       error
}

func NewRegistry() *Registry {
	return &Registry{}
}

// ChatTemplate 返回 system + user 两条消息组成的模板
func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}
	r.once.Do(func() { r.templates, r.err = loadTemplates(templatesFS) })
	if r.err != nil {
		return nil, r.err
	}
	tpl, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("unknown prompt id %q (known: %s)", id, strings.Join(r.ids(), ", "))
	}
	return tpl, nil
}

func (r *Registry) ids() []string {
	out := make([]string, 0, len(r.templates))
	for id := range r.templates {
		out = append(out, string(id))
	}
	sort.Strings(out)
	return out
}

// loadTemplates 每个 ID 必须同时具备 system 与 user 两个文件
func loadTemplates(fsys fs.FS) (map[PromptID]einoprompt.ChatTemplate, error) {
	files, err := fs.Glob(fsys, "templates/*.system.txt")
	if err != nil {
		return nil, err
	}

	out := make(map[PromptID]einoprompt.ChatTemplate, len(files))
	for _, systemFile := range files {
		id := strings.TrimSuffix(path.Base(systemFile), ".system.txt")
		system, err := readText(fsys, systemFile)
		if err != nil {
			return nil, err
		}
		user, err := readText(fsys, "templates/"+id+".user.txt")
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", id, err)
		}
		out[PromptID(id)] = einoprompt.FromMessages(
			schema.FString,
			schema.SystemMessage(system),
			schema.UserMessage(user),
		)
	}
	return out, nil
}

func readText(fsys fs.FS, name string) (string, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
