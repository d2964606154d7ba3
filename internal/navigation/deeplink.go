// Package navigation は外部の地図アプリや設定画面へのディープリンクを組み立てる。
package navigation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hitoshi/launchdeck/internal/model"
)

// Platform はディープリンクの形式を決める端末の種類。
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// iOS端末と判定するUser-Agentの部分文字列
var iosMarkers = []string{"iPhone", "iPad", "iPod", "Macintosh"}

// DetectPlatform はUser-Agentから端末の種類を判定する。iOS以外はAndroid扱い。
func DetectPlatform(userAgent string) Platform {
	for _, m := range iosMarkers {
		if strings.Contains(userAgent, m) {
			return PlatformIOS
		}
	}
	return PlatformAndroid
}

// AndroidSettingsURL はAndroidのアプリ詳細設定を開くインテント。
const AndroidSettingsURL = "intent:#Intent;action=android.settings.APPLICATION_DETAILS_SETTINGS;end"

// IOSSettingsURL はiOSのアプリ設定を開くURL。
const IOSSettingsURL = "app-settings:"

// DirectionsURL は現在地から目的地までの経路案内を開くディープリンクを返す。
// iOSはApple Maps、それ以外はGoogleナビゲーションを使う。
func DirectionsURL(platform Platform, origin, destination model.Coordinates, label string) string {
	if platform == PlatformIOS {
		// saddr, daddr, q の順に並べ、座標のカンマはそのまま残す。
		return "http://maps.apple.com/?saddr=" + origin.String() +
			"&daddr=" + destination.String() +
			"&q=" + url.QueryEscape(label)
	}
	return fmt.Sprintf("google.navigation:q=%s&mode=d", destination.String())
}

// SettingsURL は位置情報の許可を変更するための設定画面へのリンクを返す。
func SettingsURL(platform Platform) string {
	if platform == PlatformIOS {
		return IOSSettingsURL
	}
	return AndroidSettingsURL
}
