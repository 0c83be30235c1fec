package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/qs3c/wpr_server/internal/model"
)

const analysisSystemPrompt = `You are an expert HR Analytics AI for IOL Inc., specializing in employee development and performance analysis.
Analyze the Weekly Productivity Report (WPR) data and respond with a single JSON object in exactly this format:
{
  "performance_metrics": {
    "productivity_score": number (1-4),
    "task_completion_rate": number (0-100),
    "project_progress": number (0-100),
    "collaboration_score": number (1-4)
  },
  "skill_assessment": {
    "technical_skills": [strings],
    "soft_skills": [strings],
    "development_areas": [strings],
    "strengths": [strings]
  },
  "wellness_indicators": {
    "work_life_balance": "Good" | "Moderate" | "Needs Attention",
    "workload_assessment": "Optimal" | "Heavy" | "Light",
    "engagement_level": "High" | "Moderate" | "Low"
  },
  "growth_recommendations": {
    "immediate_actions": [strings],
    "development_goals": [strings],
    "training_needs": [strings]
  },
  "team_dynamics": {
    "collaboration_pattern": string,
    "peer_feedback_summary": string,
    "team_impact": string
  },
  "risk_factors": {
    "burnout_risk": "Low" | "Moderate" | "High",
    "retention_risk": "Low" | "Moderate" | "High",
    "performance_trend": "Improving" | "Stable" | "Declining"
  }
}
Output only the JSON object, without Markdown or commentary.
Provide specific, actionable insights. Consider both individual performance and team dynamics.`

// buildAnalysisPrompt 把周报整理成给模型的输入
func buildAnalysisPrompt(r *model.WeeklyReport) string {
	var b strings.Builder

	b.WriteString("Please analyze this Weekly Productivity Report data:\n\n")

	b.WriteString("Employee Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", r.Submitter)
	fmt.Fprintf(&b, "- Team: %s\n", orDefault(r.Team, "Unassigned"))
	fmt.Fprintf(&b, "- Week: %d\n", r.WeekNumber)
	fmt.Fprintf(&b, "- Year: %d\n\n", r.Year)

	b.WriteString("Task Statistics:\n")
	fmt.Fprintf(&b, "- Completed Tasks: %d\n", len(r.CompletedTasks))
	fmt.Fprintf(&b, "- Pending Tasks: %d\n", len(r.PendingTasks))
	fmt.Fprintf(&b, "- Dropped Tasks: %d\n\n", len(r.DroppedTasks))

	writeList(&b, "Completed Tasks Details", r.CompletedTasks)
	writeList(&b, "Pending Tasks Details", r.PendingTasks)

	b.WriteString("Project Progress:\n")
	projects := r.ProjectList()
	if len(projects) == 0 {
		b.WriteString("- None\n")
	}
	for _, p := range projects {
		fmt.Fprintf(&b, "- %s: %g%% complete\n", p.Name, p.Completion)
	}
	b.WriteString("\n")

	b.WriteString("Productivity Metrics:\n")
	fmt.Fprintf(&b, "- Self-Rating: %s\n", r.ProductivityRating)
	fmt.Fprintf(&b, "- Most Productive Time: %s\n", orDefault(r.ProductiveTime, "Not specified"))
	fmt.Fprintf(&b, "- Preferred Work Location: %s\n", orDefault(r.ProductivePlace, "Not specified"))
	fmt.Fprintf(&b, "- Improvement Suggestions: %s\n", orDefault(strings.Join(r.Suggestions, ", "), "None"))
	fmt.Fprintf(&b, "- Additional Details: %s\n\n", orDefault(r.ProductivityDetails, "None"))

	b.WriteString("Peer Evaluations:\n")
	peers := r.Peers()
	if len(peers) == 0 {
		b.WriteString("- None\n")
	}
	names := make([]string, 0, len(peers))
	for name := range peers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		eval := peers[name]
		fmt.Fprintf(&b, "- %s: Rating %d/4", name, eval.Rating)
		if eval.Comment != "" {
			fmt.Fprintf(&b, " (%s)", eval.Comment)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nPlease provide a comprehensive HR analysis following the specified JSON structure.")
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "%s:\n", title)
	if len(items) == 0 {
		b.WriteString("- None\n")
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
