package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name=tweetbot", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $template.GetElementsByTagName("text")
		$text.Item(0).AppendChild($template.CreateTextNode(%q)) | Out-Null
		$text.Item(1).AppendChild($template.CreateTextNode(%q)) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("tweetbot").Show($toast)
	`, title, message)
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Kind selects which channels a Notifier writes to.
type Kind string

const (
	KindTerminal Kind = "terminal"
	KindDesktop  Kind = "desktop"
	KindNone     Kind = "none"
)

// Notifier handles cross-platform notifications
type Notifier struct {
	kind   Kind
	sender NotificationSender
}

// NewNotifier creates a Notifier of the given kind for the current platform.
// Desktop notifiers also echo to the terminal.
func NewNotifier(kind string) *Notifier {
	n := &Notifier{kind: Kind(kind)}
	if n.kind == "" {
		n.kind = KindTerminal
	}
	if n.kind != KindDesktop {
		return n
	}

	switch runtime.GOOS {
	case "linux":
		n.sender = &LinuxNotificationSender{}
	case "darwin":
		n.sender = &MacOSNotificationSender{}
	case "windows":
		n.sender = &WindowsNotificationSender{}
	}
	return n
}

// SetSender replaces the desktop sender.
func (n *Notifier) SetSender(s NotificationSender) {
	n.sender = s
}

func (n *Notifier) send(title, message string, color func(string) string) {
	if n.kind == KindNone {
		return
	}
	printf("\n%s: %s\n", color(title), color(message))

	if n.sender != nil {
		// best effort
		_ = n.sender.Send(title, message)
	}
}

// SendNotification sends an informational notification
func (n *Notifier) SendNotification(title, message string) {
	n.send(title, message, Yellow)
}

// SendError sends an error notification
func (n *Notifier) SendError(title, message string) {
	n.send(title, message, Red)
}

// SendSuccess sends a success notification
func (n *Notifier) SendSuccess(title, message string) {
	n.send(title, message, Green)
}
