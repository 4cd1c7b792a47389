package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
)

// WriteReport renders the analytics view as a standalone HTML page
func WriteReport(w io.Writer, snap Snapshot) error {
	page := components.NewPage()
	page.PageTitle = "CryptoDoc Analytics"

	page.AddCharts(
		verificationPie(snap.Documents),
		aiStatusPie(snap.Documents),
		expirationBar(snap),
		typeBar(snap.Documents),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func verificationPie(docs []domain.Document) *charts.Pie {
	s := domain.ComputeStats(docs)
	pie := charts.NewPie()
	pie.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title:    "Blockchain Verification",
		Subtitle: fmt.Sprintf("%d%% verified", s.VerifiedPercentage),
	}))
	pie.AddSeries("verification", []opts.PieData{
		{Name: string(domain.Verified), Value: s.Verified},
		{Name: string(domain.Mining), Value: s.Total - s.Verified},
	})
	return pie
}

func aiStatusPie(docs []domain.Document) *charts.Pie {
	counts := map[domain.AIStatus]int{}
	for _, d := range docs {
		counts[d.AIStatus]++
	}
	pie := charts.NewPie()
	pie.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "AI Processing"}))
	pie.AddSeries("ai", []opts.PieData{
		{Name: string(domain.AIProcessed), Value: counts[domain.AIProcessed]},
		{Name: string(domain.AIQueued), Value: counts[domain.AIQueued]},
		{Name: string(domain.AIFailed), Value: counts[domain.AIFailed]},
	})
	return pie
}

func expirationBar(snap Snapshot) *charts.Bar {
	tracked := snap.Tracked()
	summary := domain.SummarizeExpirations(snap.Documents, tracked, snap.Thresholds)

	buckets := []domain.ExpirationBucket{domain.BucketExpired, domain.BucketExpiringSoon, domain.BucketValid}
	counts := map[domain.ExpirationBucket]int{}
	for _, t := range tracked {
		counts[t.Bucket]++
	}

	labels := make([]string, 0, len(buckets))
	data := make([]opts.BarData, 0, len(buckets))
	for _, b := range buckets {
		labels = append(labels, b.Label())
		data = append(data, opts.BarData{Value: counts[b]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title:    "Expiration Tracker",
		Subtitle: fmt.Sprintf("%d tracked, %d need action within %d days", summary.Tracked, summary.ActionRequired, snap.Thresholds.ActionRequiredDays),
	}))
	bar.SetXAxis(labels).AddSeries("documents", data)
	return bar
}

func typeBar(docs []domain.Document) *charts.Bar {
	types := []domain.DocType{domain.TypePDF, domain.TypeDoc, domain.TypeImage, domain.TypeSheet}
	counts := map[domain.DocType]int{}
	for _, d := range docs {
		counts[d.Type]++
	}

	labels := make([]string, 0, len(types))
	data := make([]opts.BarData, 0, len(types))
	for _, t := range types {
		labels = append(labels, domain.Document{Type: t}.TypeLabel())
		data = append(data, opts.BarData{Value: counts[t]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Documents by Type"}))
	bar.SetXAxis(labels).AddSeries("documents", data)
	return bar
}
