// Package migrations embeds the bot.db schema history.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
