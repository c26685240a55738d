package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide writes the steps for creating the four OAuth values.
func ShowTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	lines := []string{
		rule,
		"TWITTER API CREDENTIALS",
		rule,
		"",
		"tweetbot signs every request with OAuth 1.0a user context, so it needs",
		"an app key pair and an access token pair for the account that likes.",
		"",
		"STEP 1: Open the developer portal",
		"   - Go to https://developer.twitter.com/en/portal/dashboard",
		"   - Sign in with the account tweetbot will act as",
		"",
		"STEP 2: Create a project and an app",
		"   - Any app name works; the tool never posts tweets",
		"",
		"STEP 3: Set app permissions",
		"   - Under 'User authentication settings' pick 'Read and write'",
		"   - Liking needs write access; report-only runs work with 'Read'",
		"",
		"STEP 4: Copy the keys from 'Keys and tokens'",
		"   ┌──────────────────────┬──────────────────────────────────────┐",
		"   │ Portal name          │ Prompted as                          │",
		"   ├──────────────────────┼──────────────────────────────────────┤",
		"   │ API Key              │ consumer key                         │",
		"   │ API Key Secret       │ consumer secret                      │",
		"   │ Access Token         │ access token                         │",
		"   │ Access Token Secret  │ access secret                        │",
		"   └──────────────────────┴──────────────────────────────────────┘",
		"   Regenerate the access token after changing permissions.",
		"",
		"ALTERNATIVE: environment variables",
		"   TWEETBOT_CONSUMER_KEY, TWEETBOT_CONSUMER_SECRET,",
		"   TWEETBOT_ACCESS_TOKEN, TWEETBOT_ACCESS_SECRET",
		"   The lower-case consumer_key, consumer_secret, access_token_key and",
		"   access_token_secret names are read too, so an existing .env works.",
		"",
		"Secrets are kept in the system keychain when one is available, and in",
		"an encrypted file under the config directory otherwise.",
		rule,
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
