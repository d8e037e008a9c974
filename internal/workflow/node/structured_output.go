package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "promo-script-ai-api/pkg/errors"
)

const codeFence = "```"

var errUnbalancedFence = errors.New("opening code fence has no closing fence")

// StripCodeFence 识别三种形态并返回待解析的正文：
//
//	```json ... ```   标注为 JSON 的围栏
//	``` ... ```       普通围栏（首行若为语言标记则跳过）
//	其它              去掉首尾空白后原样返回
//
// 只有开头围栏而没有闭合围栏时返回错误。
func StripCodeFence(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, codeFence) {
		return s, nil
	}

	body := s[len(codeFence):]
	if rest, ok := cutJSONTag(body); ok {
		body = rest
	} else if nl := strings.IndexByte(body, '\n'); nl >= 0 && isLanguageTag(body[:nl]) {
		body = body[nl+1:]
	}

	end := strings.Index(body, codeFence)
	if end < 0 {
		return "", errUnbalancedFence
	}
	return strings.TrimSpace(body[:end]), nil
}

// ExtractStructured 去除围栏后按标准 JSON 语法解析为通用值。
func ExtractStructured(raw string) (any, error) {
	var v any
	if err := DecodeStructured(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeStructured 去除围栏后解析到 out。
// 任何失败都返回 CodeMalformedOutput，便于调用方区分于传输层错误。
func DecodeStructured(raw string, out any) error {
	body, err := StripCodeFence(raw)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeMalformedOutput, "malformed generation output").
			WithDetail(preview(raw))
	}
	if body == "" {
		return apperrors.Wrap(errors.New("empty body"), apperrors.CodeMalformedOutput, "malformed generation output")
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return apperrors.Wrap(fmt.Errorf("decode json: %w", err), apperrors.CodeMalformedOutput, "malformed generation output").
			WithDetail(preview(body))
	}
	return nil
}

func cutJSONTag(body string) (string, bool) {
	if len(body) < 4 || !strings.EqualFold(body[:4], "json") {
		return "", false
	}
	rest := body[4:]
	if rest == "" || rest[0] == '\n' || rest[0] == '\r' || rest[0] == ' ' || rest[0] == '\t' {
		return rest, true
	}
	// ```json{...} 之类无空白的写法
	if rest[0] == '{' || rest[0] == '[' {
		return rest, true
	}
	return "", false
}

func isLanguageTag(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || len(line) > 20 {
		return false
	}
	for _, r := range line {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '+':
		default:
			return false
		}
	}
	return true
}

// preview 截取前 200 个字符用于错误详情
func preview(s string) string {
	s = strings.TrimSpace(s)
	n := 0
	for i := range s {
		if n == 200 {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
