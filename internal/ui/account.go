package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/ecoshop/internal/pages"
	"github.com/five82/ecoshop/internal/session"
	"github.com/five82/ecoshop/internal/validation"
)

func newLoginForm(page *pages.Login) *formView[validation.LoginField] {
	return newFormView("Log in", page.Form, []fieldSpec[validation.LoginField]{
		{name: validation.LoginUsername, label: "Username"},
		{name: validation.LoginPassword, label: "Password", secret: true},
	})
}

func newRegisterForm(page *pages.Register) *formView[validation.AccountField] {
	return newFormView("Create account", page.Form, []fieldSpec[validation.AccountField]{
		{name: validation.AccountUsername, label: "Username"},
		{name: validation.AccountEmail, label: "Email"},
		{name: validation.AccountFirstName, label: "First name", optional: true},
		{name: validation.AccountLastName, label: "Last name", optional: true},
		{name: validation.AccountPhone, label: "Phone", optional: true},
		{name: validation.AccountPassword, label: "Password", secret: true},
		{name: validation.AccountPasswordConfirm, label: "Confirm password", secret: true},
	})
}

func newPasswordForm(page *pages.ChangePassword) *formView[validation.PasswordField] {
	return newFormView("Change password", page.Form, []fieldSpec[validation.PasswordField]{
		{name: validation.PasswordCurrent, label: "Current password", secret: true},
		{name: validation.PasswordNew, label: "New password", secret: true},
	})
}

// handleAccountKey processes keyboard input for the account view.
func (m Model) handleAccountKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	signedIn := m.session != nil && m.session.IsAuthenticated()

	switch {
	case !signedIn && key.Matches(msg, m.keys.Login):
		m.loginForm.setFocus(0)
		m.currentView = ViewLogin
	case !signedIn && key.Matches(msg, m.keys.Register):
		m.registerForm.setFocus(0)
		m.currentView = ViewRegister
	case signedIn && key.Matches(msg, m.keys.ChangePassword):
		m.passwordForm.setFocus(0)
		m.currentView = ViewPassword
	case signedIn && key.Matches(msg, m.keys.Logout):
		return m, m.logoutCmd()
	}
	return m, nil
}

// renderAccount renders the profile, or sign-in hints for guests.
func (m Model) renderAccount() string {
	styles := m.theme.Styles()
	var b strings.Builder

	if m.session == nil || !m.session.IsAuthenticated() {
		b.WriteString(styles.AccentText.Bold(true).Render("You are browsing as a guest"))
		b.WriteString("\n\n")
		b.WriteString(styles.Text.Render("Your cart is kept on this device. Log in to keep it with your account."))
		b.WriteString("\n\n")
		b.WriteString(styles.MutedText.Render("l log in · n create account"))
		return b.String()
	}

	user, ok := m.session.User()
	if !ok {
		b.WriteString(styles.MutedText.Render("Loading profile..."))
		return b.String()
	}

	b.WriteString(styles.AccentText.Bold(true).Render(user.DisplayName()))
	b.WriteString("\n\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(styles.MutedText.Render(padRight(label, 14)))
		b.WriteString(styles.Text.Render(value))
		b.WriteString("\n")
	}
	row("Username", user.Username)
	row("Email", user.Email)
	row("Phone", user.Phone)
	row("Role", roleLabel(user.Role()))
	row("Eco points", fmt.Sprintf("%d", user.EcoPoints))

	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("p change password · o log out"))
	return b.String()
}

func roleLabel(role session.Role) string {
	switch role {
	case session.RoleBrandManager:
		return "Brand manager"
	case session.RoleRegularUser:
		return "Shopper"
	default:
		return ""
	}
}
