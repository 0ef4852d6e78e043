package e2e

import (
	"testing"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite provides a test suite for end-to-end tests
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(suite.T(), err, "could not launch chromium")
	suite.browser = browser

	suite.expect = playwright.NewPlaywrightAssertions()
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.browser != nil {
		suite.browser.Close()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest runs before each test
func (suite *E2ETestSuite) SetupTest() {
	page, err := suite.browser.NewPage()
	require.NoError(suite.T(), err, "could not create page")
	suite.page = page

	_, err = suite.page.Goto(appURL)
	require.NoError(suite.T(), err, "could not navigate to app")
}

// TearDownTest runs after each test
func (suite *E2ETestSuite) TearDownTest() {
	if suite.page != nil {
		suite.page.Close()
	}
}

// register creates a fresh account so each run starts with no habits.
func (suite *E2ETestSuite) register() string {
	username := "e2e-" + uuid.NewString()[:8]

	_, err := suite.page.Goto(appURL + "/register")
	require.NoError(suite.T(), err, "could not navigate to register page")

	err = suite.expect.Locator(suite.page.Locator(".register-form")).ToBeVisible()
	require.NoError(suite.T(), err, "register form not visible")

	err = suite.page.Locator("input[name=username]").Fill(username)
	require.NoError(suite.T(), err, "failed to fill username")

	err = suite.page.Locator("input[name=password]").Fill("testpass123")
	require.NoError(suite.T(), err, "failed to fill password")

	err = suite.page.Locator(".register-btn").Click()
	require.NoError(suite.T(), err, "failed to click register")

	// Registration logs the user in and lands on the habits page
	err = suite.expect.Locator(suite.page.Locator(".habits-screen")).ToBeVisible()
	require.NoError(suite.T(), err, "did not land on habits page after register")

	return username
}

func (suite *E2ETestSuite) login() {
	err := suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "login form not visible")

	err = suite.page.Locator("input[name=username]").Fill("testuser")
	require.NoError(suite.T(), err, "failed to fill username")

	err = suite.page.Locator("input[name=password]").Fill("testpass123")
	require.NoError(suite.T(), err, "failed to fill password")

	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err, "failed to click login")

	err = suite.expect.Locator(suite.page.Locator(".habits-screen")).ToBeVisible()
	require.NoError(suite.T(), err, "did not redirect to habits page after login")
}

func (suite *E2ETestSuite) addHabit(name, time string) {
	err := suite.page.Locator(".add-habit-form input[name=name]").Fill(name)
	require.NoError(suite.T(), err, "failed to fill habit name")

	if time != "" {
		err = suite.page.Locator(".add-habit-form input[name=time]").Fill(time)
		require.NoError(suite.T(), err, "failed to fill habit time")
	}

	err = suite.page.Locator(".add-btn").Click()
	require.NoError(suite.T(), err, "failed to click add")
}

func (suite *E2ETestSuite) TestAdminLogin() {
	suite.login()

	err := suite.expect.Locator(suite.page.Locator(".topbar h1")).ToContainText("testuser")
	require.NoError(suite.T(), err, "greeting mismatch")
}

func (suite *E2ETestSuite) TestLoginRejectsWrongPassword() {
	err := suite.page.Locator("input[name=username]").Fill("testuser")
	require.NoError(suite.T(), err, "failed to fill username")

	err = suite.page.Locator("input[name=password]").Fill("wrongpass")
	require.NoError(suite.T(), err, "failed to fill password")

	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err, "failed to click login")

	err = suite.expect.Locator(suite.page.Locator(".error")).ToHaveText("Incorrect password")
	require.NoError(suite.T(), err, "expected incorrect password error")
}

func (suite *E2ETestSuite) TestCompleteUserFlow() {
	suite.register()

	// Fresh account starts empty
	err := suite.expect.Locator(suite.page.Locator(".habit-item")).ToHaveCount(0)
	require.NoError(suite.T(), err, "new account should have no habits")

	// Create a habit
	suite.addHabit("Morning run", "07:30")

	err = suite.expect.Locator(suite.page.Locator(".habit-item")).ToHaveCount(1)
	require.NoError(suite.T(), err, "habit item count mismatch")

	item := suite.page.Locator(".habit-item").First()
	err = suite.expect.Locator(item.Locator(".habit-name")).ToHaveText("Morning run")
	require.NoError(suite.T(), err, "habit name mismatch")

	err = suite.expect.Locator(item.Locator(".habit-time")).ToHaveText("07:30")
	require.NoError(suite.T(), err, "habit time mismatch")

	// Toggle it complete
	err = item.Locator(".toggle-btn").Click()
	require.NoError(suite.T(), err, "failed to toggle habit")

	err = suite.expect.Locator(suite.page.Locator(".habit-item.done")).ToHaveCount(1)
	require.NoError(suite.T(), err, "habit should be marked done")

	// History shows it under today
	_, err = suite.page.Goto(appURL + "/history/all")
	require.NoError(suite.T(), err, "could not open history")

	err = suite.expect.Locator(suite.page.Locator(".history-group h2").First()).ToContainText("TODAY")
	require.NoError(suite.T(), err, "first history group should be today")

	group := suite.page.Locator(".history-group").First()
	err = suite.expect.Locator(group.Locator(".habit-name")).ToHaveText("Morning run")
	require.NoError(suite.T(), err, "history habit name mismatch")

	err = suite.expect.Locator(group.Locator(".completed-at")).ToContainText("done at")
	require.NoError(suite.T(), err, "completed habit should show completion time")

	// Toggle back off; the entry stays but is no longer done
	_, err = suite.page.Goto(appURL)
	require.NoError(suite.T(), err, "could not return to habits page")

	err = suite.page.Locator(".habit-item .toggle-btn").First().Click()
	require.NoError(suite.T(), err, "failed to untoggle habit")

	err = suite.expect.Locator(suite.page.Locator(".habit-item.done")).ToHaveCount(0)
	require.NoError(suite.T(), err, "habit should no longer be marked done")
}

func (suite *E2ETestSuite) TestDeleteHabit() {
	suite.register()
	suite.addHabit("Stretch", "")

	err := suite.expect.Locator(suite.page.Locator(".habit-item")).ToHaveCount(1)
	require.NoError(suite.T(), err, "habit item count mismatch")

	err = suite.page.Locator(".habit-item .delete-btn").First().Click()
	require.NoError(suite.T(), err, "failed to delete habit")

	err = suite.expect.Locator(suite.page.Locator(".habit-item")).ToHaveCount(0)
	require.NoError(suite.T(), err, "habit should be gone")
}

func (suite *E2ETestSuite) TestEmptyHabitNameRejected() {
	suite.register()
	suite.addHabit("   ", "")

	err := suite.expect.Locator(suite.page.Locator(".error")).ToHaveText("Habit name is required")
	require.NoError(suite.T(), err, "expected name required error")

	err = suite.expect.Locator(suite.page.Locator(".habit-item")).ToHaveCount(0)
	require.NoError(suite.T(), err, "no habit should have been created")
}

// TestE2ESuite runs the e2e test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
