package service

import (
	"strconv"
	"strings"

	"github.com/qs3c/wpr_server/internal/model"
	"github.com/qs3c/wpr_server/internal/model/dto"
)

// ParseTaskLines 多行文本拆成任务列表，忽略空行
func ParseTaskLines(text string) []string {
	tasks := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		if line != "" {
			tasks = append(tasks, line)
		}
	}
	return tasks
}

// ParseProjectLines 解析 "名称, 完成度" 形式的项目行
// 格式不对或完成度越界的行直接跳过
func ParseProjectLines(text string) []model.Project {
	projects := []model.Project{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		idx := strings.LastIndex(line, ",")
		if idx <= 0 {
			continue
		}
		name := strings.TrimSpace(line[:idx])
		pct := strings.TrimSuffix(strings.TrimSpace(line[idx+1:]), "%")

		completion, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil || name == "" || completion < 0 || completion > 100 {
			continue
		}
		projects = append(projects, model.Project{Name: name, Completion: completion})
	}
	return projects
}

// ParsePeerRating 解析 "3 (Good)" 形式的评分
func ParsePeerRating(text string) (int, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, invalid("peer_evaluations", "empty rating")
	}
	rating, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, invalid("peer_evaluations", "rating %q is not a number", text)
	}
	if rating < 1 || rating > 4 {
		return 0, invalid("peer_evaluations", "rating %d out of range 1-4", rating)
	}
	return rating, nil
}

// ParseForm 把网页表单转换成提交请求
// 没有选评分的同事视为未评价
func ParseForm(form *dto.SubmitReportForm) (*dto.SubmitReportRequest, error) {
	req := &dto.SubmitReportRequest{
		Submitter:           strings.TrimSpace(form.Submitter),
		Email:               strings.TrimSpace(form.Email),
		WeekNumber:          form.WeekNumber,
		Year:                form.Year,
		CompletedTasks:      ParseTaskLines(form.CompletedTasks),
		PendingTasks:        ParseTaskLines(form.PendingTasks),
		DroppedTasks:        ParseTaskLines(form.DroppedTasks),
		Projects:            ParseProjectLines(form.Projects),
		ProductivityRating:  form.ProductivityRating,
		ProductivityDetails: strings.TrimSpace(form.ProductivityDetails),
		ProductiveTime:      form.ProductiveTime,
		ProductivePlace:     form.ProductivePlace,
		Suggestions:         form.Suggestions,
		PeerEvaluations:     map[string]model.PeerEvaluation{},
	}

	for i, name := range form.PeerNames {
		name = strings.TrimSpace(name)
		if name == "" || i >= len(form.PeerRatings) || strings.TrimSpace(form.PeerRatings[i]) == "" {
			continue
		}
		rating, err := ParsePeerRating(form.PeerRatings[i])
		if err != nil {
			return nil, err
		}
		eval := model.PeerEvaluation{Rating: rating}
		if i < len(form.PeerComments) {
			eval.Comment = strings.TrimSpace(form.PeerComments[i])
		}
		req.PeerEvaluations[name] = eval
	}

	return req, nil
}
