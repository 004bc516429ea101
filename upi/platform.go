package upi

import "regexp"

var (
	iosPattern     = regexp.MustCompile(`(?i)iphone|ipad|ipod`)
	androidPattern = regexp.MustCompile(`(?i)android`)
	mobilePattern  = regexp.MustCompile(`(?i)android|iphone|ipad|ipod`)
)

type Platform struct {
	IOS     bool
	Android bool
	Mobile  bool
}

func IsIOS(userAgent string) bool {
	return userAgent != "" && iosPattern.MatchString(userAgent)
}

func IsAndroid(userAgent string) bool {
	return userAgent != "" && androidPattern.MatchString(userAgent)
}

func IsLikelyMobile(userAgent string) bool {
	return userAgent != "" && mobilePattern.MatchString(userAgent)
}

func DetectPlatform(userAgent string) Platform {
	return Platform{
		IOS:     IsIOS(userAgent),
		Android: IsAndroid(userAgent),
		Mobile:  IsLikelyMobile(userAgent),
	}
}

// PreferredApp is the app whose intent should be offered first on the platform.
// iOS has no default UPI handler for upi://, so the GPay scheme goes first there.
func (p Platform) PreferredApp() App {
	if p.IOS {
		return GPAY
	}
	return GENERIC
}
