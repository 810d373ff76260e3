package notifier

import (
	"fmt"
	"strings"
	"time"

	"FractalSentinel/internal/backtest"
	"FractalSentinel/internal/indicator"
	"FractalSentinel/internal/model"
)

func kindLabel(kind model.PatternKind) string {
	if kind == model.PatternTop {
		return "顶分型"
	}
	return "底分型"
}

// FormatSignal renders a confirmed fractal alert, with the freshest
// indicator row attached for context.
func FormatSignal(item model.WatchItem, event model.PatternEvent, ind *indicator.Set, latestClose float64) (title, body string) {
	label := kindLabel(event.Kind)
	icon := "📈"
	if event.Kind == model.PatternTop {
		icon = "📉"
	}
	title = fmt.Sprintf("%s %s %s信号", icon, item.DisplayName(), label)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("**标的**: %s\n", item.DisplayName()))
	b.WriteString(fmt.Sprintf("**信号日期**: %s\n", event.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("**形态**: %s\n", label))
	b.WriteString(fmt.Sprintf("**收盘价**: %.2f\n", event.Price))
	if event.Kind == model.PatternTop {
		b.WriteString(fmt.Sprintf("**最高价**: %.2f\n", event.Extreme))
	} else {
		b.WriteString(fmt.Sprintf("**最低价**: %.2f\n", event.Extreme))
	}
	b.WriteString(fmt.Sprintf("**确认评分**: %.1f\n", event.Score))
	if len(event.Reasons) > 0 {
		b.WriteString(fmt.Sprintf("**确认因素**: %s\n", strings.Join(event.Reasons, "、")))
	}

	if ind != nil {
		n := len(ind.MA10.Values)
		if n > 0 {
			i := n - 1
			b.WriteString("\n**指标快照**:\n")
			b.WriteString(fmt.Sprintf("最新收盘: %.2f\n", latestClose))
			if v, ok := ind.MA10.At(i); ok {
				b.WriteString(fmt.Sprintf("MA10: %.2f\n", v))
			}
			if v, ok := ind.RSI.At(i); ok {
				b.WriteString(fmt.Sprintf("RSI: %.1f\n", v))
			}
			if v, ok := ind.MACDHist.At(i); ok {
				b.WriteString(fmt.Sprintf("MACD柱: %.4f\n", v))
			}
			lo, okLo := ind.BBLower.At(i)
			up, okUp := ind.BBUpper.At(i)
			if okLo && okUp {
				b.WriteString(fmt.Sprintf("布林带: %.2f ~ %.2f\n", lo, up))
			}
		}
	}
	return title, b.String()
}

// FormatStartup renders the monitor startup announcement.
func FormatStartup(watchlist []model.WatchItem, checkInterval time.Duration, now time.Time) (title, body string) {
	title = "🚀 监控已启动"
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**启动时间**: %s\n", now.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("**检查间隔**: %v\n", checkInterval))
	b.WriteString(fmt.Sprintf("**监控标的** (%d):\n", len(watchlist)))
	for _, item := range watchlist {
		b.WriteString(fmt.Sprintf("- %s\n", item.DisplayName()))
	}
	return title, b.String()
}

// FormatShutdown renders the monitor shutdown announcement.
func FormatShutdown(now time.Time) (title, body string) {
	return "🛑 监控已停止", fmt.Sprintf("**停止时间**: %s", now.Format("2006-01-02 15:04:05"))
}

// FormatSystemicFault renders the alert for a cycle where every instrument
// failed, which usually means the data source itself is down.
func FormatSystemicFault(total int, now time.Time) (title, body string) {
	title = "🚨 数据源异常"
	body = fmt.Sprintf("**时间**: %s\n本轮 %d 个标的全部检查失败，已降低轮询频率，恢复后自动回到正常节奏",
		now.Format("2006-01-02 15:04:05"), total)
	return title, body
}

// FormatCycleError renders a per-instrument failure notice.
func FormatCycleError(item model.WatchItem, err error, now time.Time) (title, body string) {
	title = fmt.Sprintf("⚠️ %s 检查失败", item.DisplayName())
	body = fmt.Sprintf("**时间**: %s\n**错误**: %v", now.Format("2006-01-02 15:04:05"), err)
	return title, body
}

// FormatBacktestReport renders a backtest summary for an instrument.
func FormatBacktestReport(item model.WatchItem, report *backtest.Report, start, end time.Time) (title, body string) {
	title = fmt.Sprintf("🧪 %s 回测报告", item.DisplayName())
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**区间**: %s ~ %s\n", start.Format("2006-01-02"), end.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("**交易次数**: %d\n", report.TotalTrades))
	if report.TotalTrades == 0 {
		b.WriteString("区间内无符合条件的信号\n")
		return title, b.String()
	}
	b.WriteString(fmt.Sprintf("**胜率**: %.1f%%\n", report.WinRate))
	b.WriteString(fmt.Sprintf("**平均收益**: %+.2f%%\n", report.AvgProfitPct))
	b.WriteString(fmt.Sprintf("**累计收益**: %+.2f%%\n", report.TotalProfitPct))
	b.WriteString(fmt.Sprintf("**最大盈利**: %+.2f%%\n", report.MaxProfitPct))
	b.WriteString(fmt.Sprintf("**最大亏损**: %+.2f%%\n", report.MaxLossPct))
	b.WriteString(fmt.Sprintf("**平均持仓**: %.1f天\n", report.AvgHoldDays))
	return title, b.String()
}

// FormatDailyReport renders the post-close batch pattern scan for the
// whole watchlist.
func FormatDailyReport(results map[string][]model.PatternEvent, items []model.WatchItem, now time.Time) (title, body string) {
	title = fmt.Sprintf("📊 收盘形态扫描 | %s", now.Format("2006-01-02"))
	var b strings.Builder
	total := 0
	for _, item := range items {
		events := results[item.Code]
		if len(events) == 0 {
			continue
		}
		total += len(events)
		b.WriteString(fmt.Sprintf("**%s**:\n", item.DisplayName()))
		for _, ev := range events {
			b.WriteString(fmt.Sprintf("- %s %s 评分%.1f (%s)\n",
				ev.Date.Format("01-02"), kindLabel(ev.Kind), ev.Score, strings.Join(ev.Reasons, "、")))
		}
	}
	if total == 0 {
		b.WriteString("今日无确认形态\n")
	}
	return title, b.String()
}
