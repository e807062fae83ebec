package pipeline

import (
	"fmt"
	"strings"

	"github.com/mnakata/islandhop/internal/model"
)

// errorMessage is the contained-failure reply
const errorMessage = "抱歉，处理您的问题时出现了内部错误，请稍后再试或换个问法。"

// renderAnswer assembles the deterministic reply from analysis and
// evidence. Used when no LLM is configured or its prose was rejected.
func renderAnswer(req *model.TravelRequirement, analysis *model.AnalysisResult, evidence []model.Evidence) string {
	var b strings.Builder

	switch req.Category {
	case model.CategoryTimeQuery:
		renderFeasibility(&b, analysis)
	case model.CategoryConvenienceComparison, model.CategoryPriceComparison, model.CategoryRoutePlanning:
		renderComparison(&b, analysis)
	default:
		if analysis != nil && analysis.Summary != "" {
			b.WriteString(analysis.Summary)
			b.WriteString("\n")
		}
	}

	renderEvidenceLines(&b, evidence)

	if b.Len() == 0 {
		return "抱歉，暂时没有找到相关的船班数据。您可以换个问法，或指定出发地和目的地。"
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderFeasibility(b *strings.Builder, analysis *model.AnalysisResult) {
	if analysis == nil {
		return
	}
	fa := analysis.Feasibility
	if fa == nil {
		if analysis.Summary != "" {
			b.WriteString(analysis.Summary)
			b.WriteString("\n")
		}
		return
	}

	if fa.NextDay {
		fmt.Fprintf(b, "按%d分钟换乘时间推算，您将在次日%s到达港口。\n", fa.BufferMins, fa.ArrivalTime)
	} else {
		fmt.Fprintf(b, "按%d分钟换乘时间推算，您预计%s到达港口。\n", fa.BufferMins, fa.ArrivalTime)
	}
	for _, df := range fa.Destinations {
		fmt.Fprintf(b, "- %s：%s", df.Destination, df.Recommendation)
		if len(df.CatchableTimes) > 0 {
			fmt.Fprintf(b, "（可选班次：%s）", strings.Join(df.CatchableTimes, "、"))
		}
		if df.ScheduleSource == "default" {
			b.WriteString("［参考时刻表，请以现场公告为准］")
		}
		b.WriteString("\n")
	}
	if fa.Summary != "" {
		b.WriteString(fa.Summary)
		b.WriteString("\n")
	}
}

func renderComparison(b *strings.Builder, analysis *model.AnalysisResult) {
	if analysis == nil {
		return
	}
	if analysis.Summary != "" {
		b.WriteString(analysis.Summary)
		b.WriteString("\n")
	}
	for _, opt := range analysis.Options {
		fmt.Fprintf(b, "- %s", opt.Name)
		if opt.Reason != "" {
			fmt.Fprintf(b, "：%s", opt.Reason)
		}
		if opt.Fare != "" && !strings.Contains(opt.Reason, opt.Fare) {
			fmt.Fprintf(b, "，票价%s", opt.Fare)
		}
		b.WriteString("\n")
	}
}

// renderEvidenceLines appends the top supporting snippets
func renderEvidenceLines(b *strings.Builder, evidence []model.Evidence) {
	shown := 0
	for _, ev := range evidence {
		if !ev.Source.Structured() {
			continue
		}
		if shown == 0 {
			b.WriteString("\n相关班次数据：\n")
		}
		fmt.Fprintf(b, "- %s\n", ev.Content)
		shown++
		if shown >= 3 {
			break
		}
	}
}

// buildAnswerPrompt asks the model for a grounded prose reply
func buildAnswerPrompt(query string, analysis *model.AnalysisResult, evidence []model.Evidence) string {
	var b strings.Builder
	b.WriteString("根据以下数据回答旅客问题。只使用给出的数据，缺数据就直说，不要编造班次、票价或公司。\n\n")

	if analysis != nil && analysis.Summary != "" {
		b.WriteString("分析结论：")
		b.WriteString(analysis.Summary)
		b.WriteString("\n")
	}

	b.WriteString("数据：\n")
	limit := 8
	for i, ev := range evidence {
		if i >= limit {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, ev.Content)
	}

	b.WriteString("\n旅客问题：")
	b.WriteString(query)
	return b.String()
}

// summarizeSources counts evidence per source with mean relevance
func summarizeSources(evidence []model.Evidence) model.SourceSummary {
	totals := make(map[model.EvidenceSource]struct {
		count int
		sum   float64
	})
	var order []model.EvidenceSource
	for _, ev := range evidence {
		t, ok := totals[ev.Source]
		if !ok {
			order = append(order, ev.Source)
		}
		t.count++
		t.sum += ev.Relevance
		totals[ev.Source] = t
	}

	summary := model.SourceSummary{Total: len(evidence)}
	for _, src := range order {
		t := totals[src]
		summary.Stats = append(summary.Stats, model.SourceStat{
			Source:       src,
			Count:        t.count,
			AvgRelevance: t.sum / float64(t.count),
		})
	}
	return summary
}
