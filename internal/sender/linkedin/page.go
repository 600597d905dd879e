// internal/sender/linkedin/page.go
package linkedin

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Ordered indicator and candidate locator lists. First match wins;
// exhausting a list fails the contact. The platform markup shifts between
// rollouts, which is why each control has several candidates.
var (
	authenticatedSelectors = []string{
		"nav.global-nav",
		"div[data-test-id='nav-global-nav']",
		"div[data-test-app-aware-link='feed']",
		"button[aria-label*='Messaging']",
	}

	loginWallSelectors = []string{
		"form.login__form",
		"input#username",
		"input[name='session_key']",
		"form[action*='checkpoint']",
	}

	messageButtonSelectors = []string{
		"button[aria-label*='Message']",
		"button:has-text('Message')",
		"button.artdeco-button:has-text('Message')",
		"button.pvs-profile-actions__action:has-text('Message')",
		"button[data-control-name='message_profile']",
	}

	editorSelectors = []string{
		"div[contenteditable='true'][aria-label*='message']",
		"div.msg-form__contenteditable[contenteditable='true']",
		"div.msg-form__message-texteditor [contenteditable='true']",
		"div.msg-form__msg-content-container [contenteditable='true']",
		"div[role='textbox'][contenteditable='true']",
		"div[contenteditable='true']",
	}

	sendButtonSelectors = []string{
		"button.msg-form__send-button",
		"button[type='submit'].msg-form__send-button",
		"button.msg-form__send-btn",
	}
)

// pageSurface implements surface on a live Playwright page.
type pageSurface struct {
	page        playwright.Page
	browserCtx  playwright.BrowserContext
	profileURL  string
	storagePath string
	log         *zap.SugaredLogger
}

func (s *pageSurface) Observe() observation {
	obs := observation{URL: s.page.URL()}
	for _, sel := range authenticatedSelectors {
		if n, err := s.page.Locator(sel).Count(); err == nil && n > 0 {
			obs.AuthedIndicator = true
			break
		}
	}
	if !obs.AuthedIndicator {
		for _, sel := range loginWallSelectors {
			if n, err := s.page.Locator(sel).Count(); err == nil && n > 0 {
				obs.LoginIndicator = true
				break
			}
		}
	}
	return obs
}

func (s *pageSurface) Restore() error {
	if strings.Contains(s.page.URL(), s.profileURL) {
		return nil
	}
	_, err := s.page.Goto(s.profileURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(120_000),
	})
	return err
}

func (s *pageSurface) PersistSession() error {
	_, err := s.browserCtx.StorageState(s.storagePath)
	if err == nil {
		s.log.Infow("session state saved", "path", s.storagePath)
	}
	return err
}

// firstVisible walks the candidate list and returns the first locator with
// a currently-visible match.
func (s *pageSurface) firstVisible(selectors []string) (playwright.Locator, bool) {
	for _, sel := range selectors {
		loc := s.page.Locator(sel)
		n, err := loc.Count()
		if err != nil || n == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			item := loc.Nth(i)
			if visible, err := item.IsVisible(); err == nil && visible {
				s.log.Debugw("locator matched", "selector", sel)
				return item, true
			}
		}
	}
	return nil, false
}

func (s *pageSurface) OpenCompose() error {
	if _, err := s.page.Evaluate("() => window.scrollTo(0, 0)"); err != nil {
		s.log.Debugw("scroll to top failed", "error", err)
	}

	button, ok := s.firstVisible(messageButtonSelectors)
	if !ok {
		// Broad fallback: any visible button whose text mentions messaging.
		button, ok = s.findButtonByText("message")
	}
	if !ok {
		return fmt.Errorf("message control: exhausted %d candidate locators", len(messageButtonSelectors))
	}

	if err := button.ScrollIntoViewIfNeeded(); err != nil {
		s.log.Debugw("scroll into view failed", "error", err)
	}
	if err := button.Hover(playwright.LocatorHoverOptions{Timeout: playwright.Float(2000)}); err != nil {
		s.log.Debugw("hover failed", "error", err)
	}
	if err := button.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(3000)}); err != nil {
		// Overlays sometimes swallow the click; a JS click bypasses them.
		if _, jsErr := button.Evaluate("el => el.click()", nil); jsErr != nil {
			return fmt.Errorf("message control click: %w", err)
		}
	}
	return nil
}

func (s *pageSurface) findButtonByText(text string) (playwright.Locator, bool) {
	buttons, err := s.page.Locator("button").All()
	if err != nil {
		return nil, false
	}
	for _, btn := range buttons {
		inner, err := btn.InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(500)})
		if err != nil || !strings.Contains(strings.ToLower(inner), text) {
			continue
		}
		if visible, err := btn.IsVisible(); err == nil && visible {
			return btn, true
		}
	}
	return nil, false
}

func (s *pageSurface) InsertMessage(text string) error {
	var editor playwright.Locator
	for _, sel := range editorSelectors {
		loc := s.page.Locator(sel).First()
		err := loc.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: playwright.Float(5000),
		})
		if err == nil {
			editor = loc
			break
		}
	}
	if editor == nil {
		return fmt.Errorf("message editor: exhausted %d candidate locators", len(editorSelectors))
	}

	if err := editor.Click(); err != nil {
		return fmt.Errorf("focus editor: %w", err)
	}
	// Sequential keystrokes with a small delay read as human typing.
	if err := editor.PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Delay: playwright.Float(40),
	}); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *pageSurface) ConfirmSend() error {
	if button, ok := s.firstVisible(sendButtonSelectors); ok {
		return button.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(3000)})
	}
	// Keyboard shortcut works regardless of the send button markup.
	if err := s.page.Keyboard().Press("Control+Enter"); err != nil {
		s.page.WaitForTimeout(300)
		return s.page.Keyboard().Press("Control+Enter")
	}
	return nil
}
