package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"printbot/internal/dispatch"
	"printbot/internal/i18n"
	"printbot/internal/printer"
	"printbot/internal/queue"
	"printbot/internal/quiet"
	kit "printbot/internal/transport"
	logx "printbot/pkg/logx"
)

func (a *App) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case up := <-a.updates:
			if up.Kind != kit.UpdateMessage || up.Message == nil {
				continue
			}
			a.handleMessage(ctx, up.Message)
		}
	}
}

func (a *App) handleMessage(ctx context.Context, m *kit.Message) {
	switch {
	case m.Document != nil, m.Photo != nil:
		a.handleFile(ctx, m)
	case strings.HasPrefix(m.Text, "/"):
		a.handleCommand(ctx, m)
	}
}

func (a *App) reply(ctx context.Context, chatID int64, text string) {
	if _, err := a.tg.SendText(ctx, kit.ChatTarget{ChatID: chatID}, text, nil); err != nil {
		a.log.Warn("reply failed", logx.Int64("chat", chatID), logx.Err(err))
	}
}

func (a *App) lang() string { return a.cfgm.Get().LanguageOrDefault() }

// allowed enforces the access list. An empty list denies everyone so a bot
// deployed without one cannot be driven by strangers.
func (a *App) allowed(ctx context.Context, m *kit.Message) bool {
	cfg := a.cfgm.Get()
	if len(cfg.Telegram.AllowedUserIDs) == 0 {
		a.reply(ctx, m.ChatID, i18n.T(a.lang(), i18n.AccessDeniedConfig, nil))
		return false
	}
	if !cfg.UserAllowed(m.FromID) {
		a.log.Warn("access denied", logx.Int64("user", m.FromID), logx.String("username", m.FromUsername))
		a.reply(ctx, m.ChatID, i18n.T(a.lang(), i18n.AccessDenied, nil))
		return false
	}
	return true
}

func (a *App) handleCommand(ctx context.Context, m *kit.Message) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(m.Text), " ")
	// Strip the @botname suffix used in group chats.
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}

	if cmd == "/start" {
		a.reply(ctx, m.ChatID, i18n.T(a.lang(), i18n.WelcomeMessage, nil))
		return
	}
	if !a.allowed(ctx, m) {
		return
	}

	switch cmd {
	case "/status":
		a.cmdStatus(ctx, m)
	case "/queue":
		a.cmdQueue(ctx, m)
	case "/process":
		a.cmdProcess(ctx, m)
	case "/remove":
		a.cmdRemove(ctx, m, strings.TrimSpace(arg))
	case "/clearfailed":
		a.cmdClearFailed(ctx, m)
	}
}

func (a *App) cmdStatus(ctx context.Context, m *kit.Message) {
	cfg := a.cfgm.Get()
	lang := a.lang()

	state := i18n.T(lang, i18n.ActiveStatusMarker, nil)
	if a.policy.Evaluate() == quiet.StateActive {
		state = i18n.T(lang, i18n.QuietHoursStatusMarker, nil)
	}
	pending, err := a.store.CountPending(ctx)
	if err != nil {
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.ErrorMessage, i18n.Args{"reason": err.Error()}))
		return
	}
	win := a.policy.Window()

	libre := "OFF"
	if cfg.Files.EnableLibreOffice {
		libre = "ON"
	}
	text := fmt.Sprintf(
		"PRINTER_NAME=%s\nMEDIA=%s\nDUPLEX=%s\nFIT_TO_PAGE=%v\nMAX_FILE_MB=%d\nLibreOffice=%s\nQUIET_HOURS=%s-%s\nSTATUS=%s\n%s",
		cfg.Printer.Name,
		cfg.MediaOrDefault(),
		cfg.DuplexOrDefault(),
		cfg.FitToPageOrDefault(),
		cfg.MaxFileBytes()/(1024*1024),
		libre,
		win.StartHHMM(), win.EndHHMM(),
		state,
		i18n.T(lang, i18n.QueueStatusLine, i18n.Args{"count": pending}),
	)
	_, err = a.tg.SendText(ctx, kit.ChatTarget{ChatID: m.ChatID},
		"```\n"+text+"\n```", &kit.SendOptions{ParseMode: "Markdown"})
	if err != nil {
		a.log.Warn("status reply failed", logx.Err(err))
	}
}

func (a *App) cmdQueue(ctx context.Context, m *kit.Message) {
	lang := a.lang()
	pending, err := a.store.ListPending(ctx)
	if err != nil {
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.ErrorMessage, i18n.Args{"reason": err.Error()}))
		return
	}
	if len(pending) == 0 {
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.QueueEmpty, nil))
		return
	}

	loc := a.policy.Window().Location
	var b strings.Builder
	b.WriteString(i18n.T(lang, i18n.QueueTitle, i18n.Args{"count": len(pending)}))
	b.WriteString("\n\n")
	for i, req := range pending {
		b.WriteString(i18n.T(lang, i18n.QueueItem, i18n.Args{
			"num":      i + 1,
			"filename": req.FileName,
			"time":     req.SubmittedAt.In(loc).Format("15:04"),
		}))
		b.WriteString("\n")
	}
	_, err = a.tg.SendText(ctx, kit.ChatTarget{ChatID: m.ChatID}, b.String(),
		&kit.SendOptions{ParseMode: "Markdown"})
	if err != nil {
		a.log.Warn("queue reply failed", logx.Err(err))
	}
}

func (a *App) cmdProcess(ctx context.Context, m *kit.Message) {
	lang := a.lang()
	if a.policy.Evaluate() == quiet.StateActive {
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.QuietHoursActive, nil))
		return
	}
	report, err := a.disp.Drain(ctx)
	if err != nil {
		// Covers a drain already running and storage failures alike.
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.ErrorMessage, i18n.Args{"reason": err.Error()}))
		return
	}
	if report.Attempted == 0 {
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.QueueEmpty, nil))
		return
	}
	a.reply(ctx, m.ChatID, i18n.T(lang, i18n.QueueProcessed, i18n.Args{
		"success": report.Printed,
		"errors":  report.Failed,
	}))
}

func (a *App) cmdRemove(ctx context.Context, m *kit.Message, arg string) {
	lang := a.lang()
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.ErrorMessage, i18n.Args{"reason": "usage: /remove <id>"}))
		return
	}
	if err := a.store.Remove(ctx, id); err != nil {
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.ErrorMessage, i18n.Args{"reason": err.Error()}))
		return
	}
	a.reply(ctx, m.ChatID, i18n.T(lang, i18n.QueueRemoved, i18n.Args{"id": id}))
}

func (a *App) cmdClearFailed(ctx context.Context, m *kit.Message) {
	lang := a.lang()
	n, err := a.store.ClearFailed(ctx)
	if err != nil {
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.ErrorMessage, i18n.Args{"reason": err.Error()}))
		return
	}
	a.reply(ctx, m.ChatID, i18n.T(lang, i18n.FailedCleared, i18n.Args{"count": n}))
}

// handleFile validates, downloads, converts if needed, and submits one
// inbound file.
func (a *App) handleFile(ctx context.Context, m *kit.Message) {
	if !a.allowed(ctx, m) {
		return
	}
	cfg := a.cfgm.Get()
	lang := a.lang()

	var (
		fileID   string
		fileName string
		mime     string
		size     int64
	)
	switch {
	case m.Document != nil:
		fileID = m.Document.FileID
		fileName = m.Document.Name
		if fileName == "" {
			fileName = "file_" + m.Document.UniqueID
		}
		mime = m.Document.MIME
		size = m.Document.Size
	case m.Photo != nil:
		fileID = m.Photo.FileID
		fileName = "photo_" + m.Photo.UniqueID + ".jpg"
		// Telegram re-encodes photos as JPEG.
		mime = "image/jpeg"
		size = m.Photo.Size
	default:
		return
	}

	if size > cfg.MaxFileBytes() {
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.ErrorMessage, i18n.Args{
			"reason": i18n.T(lang, i18n.FileTooLarge, i18n.Args{"max_mb": cfg.MaxFileBytes() / (1024 * 1024)}),
		}))
		return
	}
	if !printer.IsPrintable(mime) {
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.ErrorMessage, i18n.Args{
			"reason": i18n.T(lang, i18n.UnsupportedFileType, i18n.Args{"mime": mime}),
		}))
		return
	}
	if printer.IsOffice(mime) && !cfg.Files.EnableLibreOffice {
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.ErrorMessage, i18n.Args{
			"reason": i18n.T(lang, i18n.OfficeFilesDisabled, nil),
		}))
		return
	}

	// Prefix with a short random ID so two users sending "scan.pdf" at the
	// same time don't overwrite each other.
	dst := filepath.Join(cfg.SaveDirOrDefault(), uuid.NewString()[:8]+"_"+filepath.Base(fileName))
	if err := a.tg.DownloadFile(ctx, fileID, dst); err != nil {
		a.log.Warn("download failed", logx.String("file", fileName), logx.Err(err))
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.ErrorMessage, i18n.Args{
			"reason": i18n.T(lang, i18n.DownloadFailed, nil),
		}))
		return
	}

	printablePath := dst
	if printer.IsOffice(mime) {
		pdf, err := a.conv.ToPDF(ctx, dst)
		if err != nil {
			a.log.Warn("conversion failed", logx.String("file", fileName), logx.Err(err))
			a.reply(ctx, m.ChatID, i18n.T(lang, i18n.ErrorMessage, i18n.Args{
				"reason": i18n.T(lang, i18n.OfficeConversionFailed, nil),
			}))
			return
		}
		printablePath = pdf
	}

	req := &queue.Request{
		UserID:    m.FromID,
		ChatID:    m.ChatID,
		MessageID: m.ID,
		FilePath:  printablePath,
		FileName:  fileName,
		Options: queue.PrintOptions{
			Media:     cfg.MediaOrDefault(),
			Duplex:    cfg.DuplexOrDefault(),
			FitToPage: cfg.FitToPageOrDefault(),
			Copies:    cfg.CopiesOrDefault(),
		},
	}

	out, err := a.disp.Submit(ctx, req)
	if err != nil {
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.ErrorMessage, i18n.Args{"reason": err.Error()}))
		return
	}
	switch {
	case out.Queued:
		win := a.policy.Window()
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.QuietHoursQueued, i18n.Args{
			"start":    win.StartHHMM(),
			"end":      win.EndHHMM(),
			"position": out.Position,
		}))
	case out.Err != nil:
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.ErrorMessage, i18n.Args{
			"reason": i18n.T(lang, i18n.PrintError, i18n.Args{"error": out.Err.Error()}),
		}))
	default:
		a.reply(ctx, m.ChatID, i18n.T(lang, i18n.PrintSuccess, nil))
	}
}

// notifyDrainReport tells each affected chat how its queued jobs went once
// an automatic drain finishes.
func (a *App) notifyDrainReport(ctx context.Context, report dispatch.Report) {
	lang := a.lang()
	type tally struct{ printed, failed int }
	byChat := make(map[int64]*tally)
	order := make([]int64, 0, 4)
	for _, res := range report.Results {
		t, ok := byChat[res.Request.ChatID]
		if !ok {
			t = &tally{}
			byChat[res.Request.ChatID] = t
			order = append(order, res.Request.ChatID)
		}
		if res.Err == nil {
			t.printed++
		} else {
			t.failed++
		}
	}
	for _, chatID := range order {
		t := byChat[chatID]
		a.reply(ctx, chatID, i18n.T(lang, i18n.DrainReportNotification, i18n.Args{
			"printed": t.printed,
			"errors":  t.failed,
		}))
	}
}
