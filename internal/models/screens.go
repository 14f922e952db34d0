package models

// Screen identifies one view of the mobile client. The store accepts any
// identifier on navigation; these constants cover the screens the client
// actually renders.
type Screen string

const (
	ScreenWelcome Screen = "welcome"
	ScreenSignIn  Screen = "sign-in"
	ScreenSignUp  Screen = "sign-up"

	ScreenHome            Screen = "home"
	ScreenProviderList    Screen = "provider-list"
	ScreenVanDetail       Screen = "van-detail"
	ScreenBooking         Screen = "booking"
	ScreenHistory         Screen = "history"
	ScreenProfile         Screen = "profile"
	ScreenAccountSettings Screen = "account-settings"

	ScreenProviderDashboard Screen = "provider-dashboard"
	ScreenProviderProfile   Screen = "provider-profile"

	ScreenAdminDashboard Screen = "admin-dashboard"
	ScreenAdminProviders Screen = "admin-providers"
	ScreenAdminUsers     Screen = "admin-users"
	ScreenAdminProfile   Screen = "admin-profile"
)
