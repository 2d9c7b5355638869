package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"CyberDash/internal/model"
	"CyberDash/internal/pipeline"
)

type OutputFormatter struct {
	format string
}

func NewOutputFormatter(format string) *OutputFormatter {
	return &OutputFormatter{format: format}
}

// PrintResult 输出单次查询的结果，outputFile 非空时写入文件
func (of *OutputFormatter) PrintResult(out pipeline.Outcome, outputFile string) error {
	output := of.Format(out)

	if outputFile != "" {
		return os.WriteFile(outputFile, []byte(output), 0644)
	}

	fmt.Print(output)
	return nil
}

func (of *OutputFormatter) Format(out pipeline.Outcome) string {
	switch strings.ToLower(of.format) {
	case "json":
		return of.formatJSON(out)
	case "html":
		return string(out.Content) + "\n"
	default:
		return of.formatText(out)
	}
}

type jsonOutcome struct {
	RunID  string       `json:"run_id"`
	Tool   model.Tool   `json:"tool"`
	Input  string       `json:"input"`
	Kind   string       `json:"kind"`
	Result model.Result `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

func (of *OutputFormatter) formatJSON(out pipeline.Outcome) string {
	doc := jsonOutcome{
		RunID:  out.RunID,
		Tool:   out.Request.Tool,
		Input:  out.Request.Input,
		Kind:   out.Kind.String(),
		Result: out.Result,
	}
	if out.Err != nil && out.Kind != pipeline.OutcomeDemo {
		doc.Error = out.Err.Error()
	}

	jsonBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "%v"}`, err)
	}
	return string(jsonBytes) + "\n"
}

func (of *OutputFormatter) formatText(out pipeline.Outcome) string {
	var builder strings.Builder
	spec := out.Request.Tool.Spec()

	builder.WriteString(fmt.Sprintf("\n%s: %s\n", spec.Label, out.Request.Input))
	builder.WriteString(strings.Repeat("═", 60) + "\n")

	switch out.Kind {
	case pipeline.OutcomeInvalid, pipeline.OutcomeError:
		message := spec.Failure
		if verr, ok := out.Err.(*pipeline.ValidationError); ok {
			message = verr.Message
		} else if out.Err != nil {
			message = fmt.Sprintf("%s: %v", spec.Failure, out.Err)
		}
		builder.WriteString(fmt.Sprintf("❌ Erreur: %s\n", message))
		return builder.String()
	case pipeline.OutcomeDemo:
		builder.WriteString("⚠️  Note: Ceci est une démonstration, le backend n'est pas connecté\n\n")
	}

	w := tabwriter.NewWriter(&builder, 0, 0, 3, ' ', 0)
	switch r := out.Result.(type) {
	case *model.IPInfo:
		writeRow(w, "IP", r.IP)
		writeRow(w, "Hostname", r.Hostname)
		writeRow(w, "Localisation", r.Location())
		writeRow(w, "Coordonnées", r.Loc)
		writeRow(w, "Organisation", r.Org)
		writeRow(w, "Code Postal", r.Postal)
		writeRow(w, "Fuseau Horaire", r.Timezone)
	case *model.PortScanResult:
		fmt.Fprintf(w, "Ports scannés: %s\n\n", out.Request.Option(model.PortsOption))
		if len(r.Ports) == 0 {
			fmt.Fprintln(w, "Aucun port ouvert trouvé")
			break
		}
		fmt.Fprintln(w, "Port\tStatut\tService")
		for _, p := range r.Ports {
			state := "🔴 Fermé"
			if p.Open {
				state = "🟢 Ouvert"
			}
			fmt.Fprintf(w, "%d/tcp\t%s\t%s\n", p.Number, state, dash(p.Service))
		}
	case *model.DNSResult:
		writeRecords(w, "Enregistrements A", r.A)
		writeRecords(w, "Enregistrements AAAA (IPv6)", r.AAAA)
		writeRecords(w, "Enregistrements MX", r.MX)
		writeRecords(w, "Serveurs de noms (NS)", r.NS)
		writeRecords(w, "Enregistrements TXT", r.TXT)
	case *model.NetworkScanResult:
		fmt.Fprintf(w, "Appareils découverts: %d\n\n", len(r.Devices))
		if len(r.Devices) == 0 {
			fmt.Fprintln(w, "Aucun appareil découvert")
			break
		}
		fmt.Fprintln(w, "IP\tMAC\tHostname\tFabricant")
		for _, d := range r.Devices {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.IP, dash(d.MAC), dash(d.Hostname), dash(d.Vendor))
		}
	case *model.ReverseIPResult:
		if len(r.Domains) == 0 {
			fmt.Fprintln(w, "Aucun domaine trouvé pour cette adresse IP")
			break
		}
		fmt.Fprintf(w, "Domaines trouvés: %d\n\n", len(r.Domains))
		for _, d := range r.Domains {
			fmt.Fprintf(w, "  • %s\n", d)
		}
	}
	w.Flush()

	builder.WriteString("\n" + strings.Repeat("═", 60) + "\n")
	return builder.String()
}

// writeRow 缺失的字段不输出
func writeRow(w *tabwriter.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "%s:\t%s\n", label, value)
}

func writeRecords(w *tabwriter.Writer, title string, records []string) {
	if len(records) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", title)
	for _, rec := range records {
		fmt.Fprintf(w, "  %s\n", rec)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
