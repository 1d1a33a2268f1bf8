package api

// Backend route paths, relative to the configured base URL
// (typically https://host/api/v1).
const (
	RouteSignin         = "/users/signin"
	RouteSignup         = "/users/signup"
	RouteLogout         = "/users/logout"
	RouteRefreshToken   = "/users/refresh-token"
	RouteVerifyRequest  = "/users/verify/request"
	RouteVerifyConfirm  = "/users/verify/confirm"
	RoutePasswordForgot = "/users/password/forgot"
	RoutePasswordReset  = "/users/password/reset"
	RouteProfile        = "/users/profile"

	RouteExpenses   = "/expenses"
	RouteCategories = "/categories"

	RouteStatisticsByCategory    = "/statistics/by-category"
	RouteStatisticsMonthlyTrends = "/statistics/monthly-trends"
	RouteStatisticsTopCategories = "/statistics/top-categories"
	RouteStatisticsSummary       = "/statistics/summary"
)
