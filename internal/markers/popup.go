package markers

import (
	"bytes"
	"html/template"

	"github.com/mwantia/trainmap/pkg/training"
)

var popupTemplates = template.Must(template.New("single").Parse(`<div class="popup popup-single">
<h3>{{.Type}}</h3>
<p class="when">{{.Weekday}}, {{.Start}} - {{.End}} Uhr</p>
<p class="where">{{.Location}}{{if .Address}}<br>{{.Address}}{{end}}</p>
{{if .AgeGroup}}<p class="age">{{.AgeGroup}}</p>{{end}}
{{if .Trainer}}<p class="trainer">{{.Trainer}}</p>{{end}}
{{if .DistanceText}}<p class="distance">{{.DistanceText}}</p>{{end}}
{{if .Trial}}<p class="trial">Probetraining möglich</p>{{end}}
{{if .Note}}<p class="note">{{.Note}}</p>{{end}}
{{if .Link}}<a href="{{.Link}}" target="_blank" rel="noopener">Mehr Infos</a>{{end}}
</div>`))

func init() {
	template.Must(popupTemplates.New("multi").Parse(`<div class="popup popup-multi">
<h3>{{(index . 0).Location}}</h3>
<p class="count">{{len .}} Trainings</p>
<ul>
{{range .}}<li data-id="{{.ID}}"><strong>{{.Weekday}} {{.Start}}</strong> {{.Type}}{{if .AgeGroup}} ({{.AgeGroup}}){{end}}{{if .Trial}} <span class="trial">Probetraining</span>{{end}}</li>
{{end}}</ul>
</div>`))
}

// RenderPopup renders the detail view for one training or the sorted list for
// several trainings at the same location.
func RenderPopup(members []training.Training) (template.HTML, error) {
	if len(members) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	var err error
	if len(members) == 1 {
		err = popupTemplates.ExecuteTemplate(&buf, "single", members[0])
	} else {
		err = popupTemplates.ExecuteTemplate(&buf, "multi", SortForPopup(members))
	}
	if err != nil {
		return "", err
	}

	return template.HTML(buf.String()), nil
}
