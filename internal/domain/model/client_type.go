package model

import "strings"

// ClientTypeはトークンの受け渡し方法を決める（内容は変えない）
// web: httpOnly cookie / mobile: JSONボディ
type ClientType string

const (
	ClientWeb    ClientType = "web"
	ClientMobile ClientType = "mobile"
)

// ResolveClientTypeはリクエストからClientTypeを決める純関数
// 優先順位: X-Client-Typeヘッダ → ボディのclientType → web
func ResolveClientType(headerValue string, bodyValue string) ClientType {
	if ct, ok := parseClientType(headerValue); ok {
		return ct
	}
	if ct, ok := parseClientType(bodyValue); ok {
		return ct
	}
	return ClientWeb
}

func parseClientType(v string) (ClientType, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case string(ClientMobile):
		return ClientMobile, true
	case string(ClientWeb):
		return ClientWeb, true
	default:
		return "", false
	}
}
