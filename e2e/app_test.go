//go:build e2e

package e2e

import (
	"fmt"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const password = "Abc123!x"

// E2ETestSuite drives the client through a headless Chromium.
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(suite.T(), err, "could not launch chromium")
	suite.browser = browser

	suite.expect = playwright.NewPlaywrightAssertions()
}

func (suite *E2ETestSuite) TearDownSuite() {
	if suite.browser != nil {
		suite.browser.Close()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest opens a fresh context so every test starts without cookies.
func (suite *E2ETestSuite) SetupTest() {
	ctx, err := suite.browser.NewContext()
	require.NoError(suite.T(), err, "could not create browser context")
	page, err := ctx.NewPage()
	require.NoError(suite.T(), err, "could not create page")
	suite.page = page

	_, err = suite.page.Goto(appURL)
	require.NoError(suite.T(), err, "could not navigate to app")
}

func (suite *E2ETestSuite) TearDownTest() {
	if suite.page != nil {
		suite.page.Context().Close()
	}
}

func (suite *E2ETestSuite) fill(selector, value string) {
	err := suite.page.Locator(selector).Fill(value)
	require.NoError(suite.T(), err, "failed to fill %s", selector)
}

func (suite *E2ETestSuite) click(selector string) {
	err := suite.page.Locator(selector).Click()
	require.NoError(suite.T(), err, "failed to click %s", selector)
}

func (suite *E2ETestSuite) expectFlash(text string) {
	err := suite.expect.Locator(suite.page.Locator(".flash")).ToContainText(text)
	require.NoError(suite.T(), err, "flash %q not shown", text)
}

// signupAndLogin registers a unique account and logs in with it.
func (suite *E2ETestSuite) signupAndLogin() string {
	email := fmt.Sprintf("user%d@example.com", time.Now().UnixNano())

	suite.click("a[href='/signup']")
	suite.fill("input[name=first_name]", "Ada")
	suite.fill("input[name=last_name]", "Lovelace")
	suite.fill("input[name=email]", email)
	suite.fill("input[name=password]", password)
	suite.fill("input[name=confirm_password]", password)
	suite.click("button[type=submit]:text-is('Sign up')")
	suite.expectFlash("Account created. Please login.")

	suite.fill("input[name=email]", email)
	suite.fill("input[name=password]", password)
	suite.click("button[type=submit]:text-is('Login')")
	suite.expectFlash("Login successful")
	return email
}

func (suite *E2ETestSuite) TestWeakPasswordIsRejected() {
	suite.fill("input[name=email]", "someone@example.com")
	suite.fill("input[name=password]", "abc")
	suite.click("button[type=submit]:text-is('Login')")

	err := suite.expect.Locator(suite.page.Locator(".form-error li")).ToHaveCount(4)
	require.NoError(suite.T(), err, "weak password rules not listed")
}

func (suite *E2ETestSuite) TestPostLifecycle() {
	suite.signupAndLogin()

	// Create
	suite.click("summary:text-is('Write a post')")
	suite.fill("input[name=title]", "Playwright post")
	suite.fill("textarea[name=content]", "Written by a browser")
	err := suite.page.Locator("input[name=published]").Check()
	require.NoError(suite.T(), err, "failed to tick published")
	suite.click("button:text-is('Create post')")
	suite.expectFlash("Post created")

	post := suite.page.Locator("article.post").First()
	err = suite.expect.Locator(post.Locator("h2")).ToHaveText("Playwright post")
	require.NoError(suite.T(), err, "created post not listed")

	// Vote and take it back
	require.NoError(suite.T(), post.Locator("button:text-is('Vote')").Click())
	err = suite.expect.Locator(post.Locator(".votes")).ToHaveText("1 vote")
	require.NoError(suite.T(), err, "vote not counted")

	require.NoError(suite.T(), post.Locator("button:text-is('Remove Vote')").Click())
	err = suite.expect.Locator(post.Locator(".votes")).ToHaveText("0 votes")
	require.NoError(suite.T(), err, "vote not removed")

	// Delete with confirmation
	require.NoError(suite.T(), post.Locator("button:text-is('Delete')").Click())
	require.NoError(suite.T(), suite.page.Locator("button:text-is('Yes, delete')").Click())
	suite.expectFlash("Post deleted")

	err = suite.expect.Locator(suite.page.Locator("article.post")).ToHaveCount(0)
	require.NoError(suite.T(), err, "post still listed after delete")
}

func (suite *E2ETestSuite) TestLogout() {
	suite.signupAndLogin()

	suite.click("button:text-is('Sign out')")
	suite.expectFlash("You have been signed out.")

	_, err := suite.page.Goto(appURL + "/feed")
	require.NoError(suite.T(), err)
	err = suite.expect.Locator(suite.page.Locator("h1")).ToHaveText("Welcome back")
	require.NoError(suite.T(), err, "feed reachable after logout")
}

func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
