package observability

const (
	// Sentry DSN for the sdk-core project.
	WandbCoreDSN = "https://0d0c6674e003452db392f158c42117fb@o151352.ingest.sentry.io/4505513612214272"

	// Sentry DSN for the sdk-leet project.
	LeetSentryDSN = "https://2fbeaa43dbe0ed35e536adc7f019ba17@o151352.ingest.us.sentry.io/4507273364242432"

	// Use for testing:
	// testSentryDSN = "https://45bbbb93aacd42cf90785517b66e925b@o151352.ingest.us.sentry.io/6438430"
)
