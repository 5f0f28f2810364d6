package discharge

const summaryTemplate = `DISCHARGE SUMMARY
=================

Patient: {{.Patient.FullName}} (MRN {{.Patient.MRN}})
Visit:   {{.Visit.VisitCode}}
Admitted: {{.Visit.AdmittedAt.Format "02 Jan 2006"}}{{if .Visit.DischargedAt}}
Discharged: {{.Visit.DischargedAt.Format "02 Jan 2006"}}{{end}}
Length of stay: {{.AdmissionDays}} day(s)
{{if .Notes}}
CLINICAL COURSE
---------------
{{range .Notes}}[{{.CreatedAt.Format "02 Jan"}}] {{.AuthorName}}{{if .Specialty}} ({{.Specialty}}){{end}}: {{.Content}}
{{end}}{{end}}{{if .Dispenses}}
MEDICATIONS DISPENSED
---------------------
{{range .Dispenses}}- {{.MedicationName}} x{{.Quantity}} ({{.Cost}})
{{end}}Pharmacy total: {{.PharmacyTotal}}
{{end}}{{if .HasBalance}}
FINANCIAL
---------
Outstanding balance: {{.Balance}}
{{end}}
Generated {{.GeneratedAt}}
`
