// Package key provides key event types, key specification parsing and a
// decoder for raw terminal input.
//
// The package defines:
//
//   - Key: identifies a keyboard key (special keys, function keys, or runes)
//   - Modifier: modifier keys (Ctrl, Alt, Shift, Meta)
//   - Event: a single key press with modifiers
//   - Decoder: turns raw bytes read from a terminal into events
//
// # Key Specifications
//
// Bindings are written in one of these forms:
//
//   - Simple keys: "a", "A", "1", "Enter", "Backspace", "Up"
//   - With modifiers: "Ctrl+P", "Alt+F4", "Ctrl+Shift+Up"
//   - Vim-style: "<C-n>", "<A-f>", "<CR>", "<BS>", "<Esc>"
package key
