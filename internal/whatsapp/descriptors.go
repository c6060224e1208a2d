// Package whatsapp is the catalog of UI targets in WhatsApp Web that the
// community engine interacts with. Each target carries every locator known
// to work, in priority order: the Spanish-locale rule the tool was tuned on
// first, then structural and English-locale alternatives.
package whatsapp

import (
	"fmt"
	"strings"

	"github.com/yourusername/community-manager/internal/resolver"
)

// URL is where the client is loaded
const URL = "https://web.whatsapp.com"

// ChatSearch is the chat-list search box. Its presence is also the signal
// that the session is logged in.
func ChatSearch() resolver.Descriptor {
	return resolver.Describe("chat-search",
		resolver.XPath("contenteditable-tab3", "//div[@contenteditable='true'][@data-tab='3']"),
		resolver.CSS("search-textbox", "#side div[contenteditable='true'][role='textbox']"),
		resolver.XPath("search-aria-es", "//div[@contenteditable='true'][contains(@aria-label, 'Buscar')]"),
		resolver.XPath("search-aria-en", "//div[@contenteditable='true'][contains(@aria-label, 'Search')]"),
	)
}

// LoginQRCode is the pairing QR code shown to a logged-out session
func LoginQRCode() resolver.Descriptor {
	return resolver.Describe("login-qr",
		resolver.CSS("qr-canvas-data-ref", "div[data-ref] canvas"),
		resolver.XPath("qr-canvas-aria", "//canvas[contains(@aria-label, 'Scan')]"),
	)
}

// CommunityResult is the chat-list row for the searched community:
// exact title first, then a title containing the name, then the first row.
// The last two can pick a neighbouring chat when titles collide.
func CommunityResult(name string) resolver.Descriptor {
	lit := Literal(name)
	return resolver.Describe("community-result",
		resolver.XPath("title-exact", fmt.Sprintf("//span[@title=%s]/ancestor::div[@role='listitem' or @role='row'][1]", lit)),
		resolver.XPath("title-contains", fmt.Sprintf("//span[contains(@title, %s)]/ancestor::div[@role='listitem' or @role='row'][1]", lit)),
		resolver.XPath("first-listitem", "(//div[@id='pane-side']//div[@role='listitem'])[1]"),
		resolver.XPath("first-row", "(//div[@id='pane-side']//div[@role='row'])[1]"),
	)
}

// ConversationOpen is satisfied by either the conversation header or the
// message pane of an open chat
func ConversationOpen() resolver.Descriptor {
	return resolver.Describe("conversation-open",
		resolver.XPath("header-testid", "//header[@data-testid='conversation-header']"),
		resolver.CSS("main-header", "#main header"),
		resolver.XPath("panel-body-testid", "//div[@data-testid='conversation-panel-body']"),
		resolver.XPath("copyable-area", "//div[@id='main']//div[contains(@class, 'copyable-area')]"),
	)
}

// ProfileDetails opens the community's info drawer from the conversation header
func ProfileDetails() resolver.Descriptor {
	return resolver.Describe("profile-details",
		resolver.XPath("title-es", "//div[@title='Detalles del perfil'][@role='button']"),
		resolver.XPath("title-en", "//div[@title='Profile details'][@role='button']"),
		resolver.CSS("header-button", "#main header div[role='button']"),
	)
}

// AnnouncementsTab is the community entry inside the info drawer
func AnnouncementsTab() resolver.Descriptor {
	return resolver.Describe("community-tab",
		resolver.XPath("button-tab6", "//div[@role='button'][@data-tab='6']"),
	)
}

// AddMembersButton opens the member picker
func AddMembersButton() resolver.Descriptor {
	return resolver.Describe("add-members",
		resolver.XPath("aria-es", "//button[@aria-label='Añadir miembros']"),
		resolver.XPath("aria-en", "//button[@aria-label='Add members']"),
		resolver.XPath("icon", "//span[contains(@data-icon, 'person-add')]/ancestor::*[@role='button' or self::button][1]"),
	)
}

// PickerSearch is the search box inside the add-members picker
func PickerSearch() resolver.Descriptor {
	return resolver.Describe("picker-search",
		resolver.XPath("aria-es", "//div[@contenteditable='true'][@data-tab='3'][@aria-label='Buscar un nombre o número']"),
		resolver.XPath("aria-en", "//div[@contenteditable='true'][@data-tab='3'][@aria-label='Search name or number']"),
		resolver.XPath("dialog-editable", "//div[@role='dialog']//div[@contenteditable='true']"),
	)
}

// ConfirmSelection is the checkmark that accepts the picked contacts
func ConfirmSelection() resolver.Descriptor {
	return resolver.Describe("confirm-selection",
		resolver.XPath("checkmark-icon", "//span[@data-icon='checkmark-medium']/ancestor::div[@role='button'][1]"),
		resolver.XPath("checkmark-any", "//span[contains(@data-icon, 'checkmark')]/ancestor::div[@role='button'][1]"),
	)
}

// FinalAddMember is the confirmation button of the add-member dialog
func FinalAddMember() resolver.Descriptor {
	return resolver.Describe("final-add-member",
		resolver.XPath("styled-span-es", "//div[contains(@class, 'x1i10hfl') and contains(@class, 'x1qjc9v5')]//span[contains(text(), 'Añadir miembro')]"),
		resolver.XPath("dialog-button-es", "//div[@role='dialog']//*[@role='button' or self::button][.//text()[contains(., 'Añadir miembro')]]"),
		resolver.XPath("dialog-button-en", "//div[@role='dialog']//*[@role='button' or self::button][.//text()[contains(., 'Add member')]]"),
	)
}

// CommunityViewTab switches the drawer to the community view
func CommunityViewTab() resolver.Descriptor {
	return resolver.Describe("community-view-tab",
		resolver.XPath("tab-es", "//button[@role='tab' and @title='Comunidad']"),
		resolver.XPath("tab-en", "//button[@role='tab' and @title='Community']"),
	)
}

// MembersButton opens the community member list with its search box
func MembersButton() resolver.Descriptor {
	return resolver.Describe("community-members",
		resolver.XPath("search-icon", "//div[@role='button' and contains(@class, 'x1ypdohk')]//span[@data-icon='search']/.."),
		resolver.XPath("label-es", "//span[contains(text(), 'miembros de la comunidad')]/ancestor::div[@role='button'][1]"),
		resolver.XPath("label-en", "//span[contains(text(), 'community members')]/ancestor::div[@role='button'][1]"),
	)
}

// MemberSearch is the member-list search box. It is a different field from
// ChatSearch and PickerSearch.
func MemberSearch() resolver.Descriptor {
	return resolver.Describe("member-search",
		resolver.XPath("aria-es", "//div[@aria-label='Buscar miembros' and @contenteditable='true']"),
		resolver.XPath("paragraph-es", "//div[@aria-label='Buscar miembros']//p[contains(@class, 'selectable-text')]"),
		resolver.XPath("aria-en", "//div[@aria-label='Search members' and @contenteditable='true']"),
	)
}

// MemberResult is the single row produced by a member search. Member rows
// carry no title comparable to chat rows, so the first row is taken.
func MemberResult() resolver.Descriptor {
	return resolver.Describe("member-result",
		resolver.XPath("row-classes", "//div[contains(@class, '_ak8l') and contains(@class, '_ap1_')]"),
		resolver.XPath("first-dialog-row", "(//div[@role='dialog']//div[@role='listitem' or @role='button'][.//span[@title]])[1]"),
	)
}

// RemoveOption is the member context-menu entry that removes the member
func RemoveOption() resolver.Descriptor {
	return resolver.Describe("remove-option",
		resolver.XPath("styled-span-es", "//span[contains(@class, 'x1o2sk6j') and contains(text(), 'Eliminar de la comunidad')]"),
		resolver.XPath("close-circle-icon", "//*[local-name()='svg' and @data-icon='close-circle-refreshed']/ancestor::div[contains(@class, 'x1c4vz4f')][1]"),
		resolver.XPath("label-en", "//span[contains(text(), 'Remove from community')]"),
	)
}

// RemoveConfirm is the destructive button of the removal dialog
func RemoveConfirm() resolver.Descriptor {
	return resolver.Describe("remove-confirm",
		resolver.XPath("styled-span-es", "//span[contains(@class, 'x140p0ai') and text()='Eliminar']"),
		resolver.XPath("dialog-button-es", "//div[@role='dialog']//button[.//text()='Eliminar']"),
		resolver.XPath("dialog-button-en", "//div[@role='dialog']//button[.//text()='Remove']"),
	)
}

// CloseButtons matches every close control of open drawers and dialogs.
// UI reset clicks all visible matches rather than resolving one.
func CloseButtons() resolver.Descriptor {
	return resolver.Describe("close-buttons",
		resolver.XPath("aria-close", "//button[@aria-label='Cerrar' or @aria-label='Close' or contains(@aria-label, 'cerrar')]"),
	)
}

// Literal quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so a value with both quote kinds is built with concat().
func Literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts)-1)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
