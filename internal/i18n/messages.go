// Package i18n holds the user-facing message catalogs. Replies go out in the
// configured interface language; Ukrainian is the default.
package i18n

import (
	"fmt"
	"strings"
)

const (
	LangEN = "en"
	LangUK = "uk"

	DefaultLang = LangUK
)

// Message keys.
const (
	AccessDenied       = "access_denied"
	AccessDeniedConfig = "access_denied_config"

	QueueEmpty       = "queue_empty"
	QueueTitle       = "queue_title"
	QueueItem        = "queue_item"
	QueueProcessed   = "queue_processed"
	QueueRemoved     = "queue_removed"
	FailedCleared    = "failed_cleared"
	QuietHoursActive = "quiet_hours_active"

	Printing         = "printing"
	PrintSuccess     = "print_success"
	PrintError       = "print_error"
	QuietHoursQueued = "quiet_hours_queued"

	FileTooLarge            = "file_too_large"
	UnsupportedFileType     = "unsupported_file_type"
	OfficeConversionFailed  = "office_conversion_failed"
	OfficeFilesDisabled     = "office_files_disabled"
	DownloadFailed          = "download_failed"
	ErrorMessage            = "error_message"
	WelcomeMessage          = "welcome_message"
	QuietHoursStatusMarker  = "quiet_hours_status"
	ActiveStatusMarker      = "active_status"
	QueueStatusLine         = "queue_status"
	DrainReportNotification = "drain_report"
)

var catalogs = map[string]map[string]string{
	LangEN: {
		AccessDenied:       "❌ Access denied",
		AccessDeniedConfig: "❌ Access denied. Configure allowed user IDs.",

		QueueEmpty:       "📋 Queue is empty",
		QueueTitle:       "📋 *Print Queue* ({count} jobs):",
		QueueItem:        "{num}. `{filename}` (added {time})",
		QueueProcessed:   "✅ Processed {success} jobs\n❌ Errors: {errors}\n📋 Queue cleared",
		QueueRemoved:     "🗑 Removed request #{id}",
		FailedCleared:    "🗑 Cleared {count} failed requests",
		QuietHoursActive: "🌙 Currently quiet hours. Queue will be processed automatically.",

		Printing:         "🖨️ Printing…",
		PrintSuccess:     "✅ Sent to printer.",
		PrintError:       "❌ Print error: {error}",
		QuietHoursQueued: "🌙 Quiet hours ({start}-{end})\n📋 Job #{position} added to queue. Will print at {end}.",

		FileTooLarge:            "File too large (> {max_mb} MB).",
		UnsupportedFileType:     "Unsupported file type: {mime}. Send PDF or image.",
		OfficeConversionFailed:  "Failed to convert document to PDF.",
		OfficeFilesDisabled:     "Office files not enabled. Send PDF or image, or enable LibreOffice in settings.",
		DownloadFailed:          "Failed to download the file. Try again.",
		ErrorMessage:            "❌ {reason}",
		WelcomeMessage:          "Hello! Send me a *PDF* or *image* (jpg/png/gif/tiff/webp) and I'll print it.\n\nAdmins can use /status to check printer settings.",
		QuietHoursStatusMarker:  "🌙 QUIET HOURS",
		ActiveStatusMarker:      "🔊 ACTIVE",
		QueueStatusLine:         "QUEUE={count} jobs",
		DrainReportNotification: "✅ Printed {printed} queued jobs\n❌ Errors: {errors}",
	},
	LangUK: {
		AccessDenied:       "❌ Доступ заборонено",
		AccessDeniedConfig: "❌ Доступ заборонено. Налаштуйте список дозволених користувачів.",

		QueueEmpty:       "📋 Черга порожня",
		QueueTitle:       "📋 *Черга друку* ({count} завдань):",
		QueueItem:        "{num}. `{filename}` (додано {time})",
		QueueProcessed:   "✅ Оброблено {success} завдань\n❌ Помилок: {errors}\n📋 Черга очищена",
		QueueRemoved:     "🗑 Видалено завдання #{id}",
		FailedCleared:    "🗑 Очищено {count} невдалих завдань",
		QuietHoursActive: "🌙 Зараз тихі години. Черга буде оброблена автоматично.",

		Printing:         "🖨️ Друкую…",
		PrintSuccess:     "✅ Відправлено на принтер.",
		PrintError:       "❌ Помилка друку: {error}",
		QuietHoursQueued: "🌙 Тихі години ({start}-{end})\n📋 Завдання #{position} додано до черги. Буде надруковано о {end}.",

		FileTooLarge:            "Файл занадто великий (> {max_mb} МБ).",
		UnsupportedFileType:     "Непідтримуваний тип файлу: {mime}. Надішліть PDF або зображення.",
		OfficeConversionFailed:  "Не вдалося конвертувати документ у PDF.",
		OfficeFilesDisabled:     "Офісні файли не увімкнено. Надішліть PDF або зображення, або увімкніть LibreOffice в налаштуваннях.",
		DownloadFailed:          "Не вдалося завантажити файл. Спробуйте ще раз.",
		ErrorMessage:            "❌ {reason}",
		WelcomeMessage:          "Привіт! Надішліть мені *PDF* або *зображення* (jpg/png/gif/tiff/webp) і я надрукую це.\n\nАдміни можуть використати /status для перевірки налаштувань принтера.",
		QuietHoursStatusMarker:  "🌙 ТИХІ ГОДИНИ",
		ActiveStatusMarker:      "🔊 АКТИВНИЙ",
		QueueStatusLine:         "QUEUE={count} завдань",
		DrainReportNotification: "✅ Надруковано {printed} завдань з черги\n❌ Помилок: {errors}",
	},
}

// Args are named placeholder values substituted into a message template.
type Args map[string]any

// T resolves key for lang and substitutes {name} placeholders. Unknown
// languages fall back to the default catalog; an unknown key falls back to
// English, then to the key itself so a catalog gap never loses a reply.
func T(lang, key string, args Args) string {
	cat, ok := catalogs[strings.ToLower(lang)]
	if !ok {
		cat = catalogs[DefaultLang]
	}
	msg, ok := cat[key]
	if !ok {
		if msg, ok = catalogs[LangEN][key]; !ok {
			return key
		}
	}
	if len(args) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(args)*2)
	for name, val := range args {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(val))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := catalogs[strings.ToLower(lang)]
	return ok
}
