package checklist

// Seed returns a representative slice of the IFA v6 crops checklist so the
// engine runs end to end in development. Production deployments load the full
// checklist from the knowledge-base collaborator instead.
func Seed() []ControlPoint {
	return []ControlPoint{
		{
			ID:       "AF.1.1.1",
			Category: CategoryRecordKeeping,
			Level:    LevelMajorMust,
			Text: LocalizedText{
				"en": "A management plan covering site history and risk assessments is available.",
				"es": "Existe un plan de gestión que cubre el historial del sitio y las evaluaciones de riesgo.",
			},
		},
		{
			ID:       "AF.1.2.1",
			Category: CategoryRecordKeeping,
			Level:    LevelMinorMust,
			Text: LocalizedText{
				"en": "Records requested during the external audit are kept for a minimum of two years.",
				"es": "Los registros solicitados durante la auditoría externa se conservan al menos dos años.",
			},
		},
		{
			ID:       "AF.2.1.1",
			Category: CategoryWorkerWelfare,
			Level:    LevelMajorMust,
			Text: LocalizedText{
				"en": "A written health, safety and hygiene policy is in place and communicated to all workers.",
				"es": "Existe una política escrita de salud, seguridad e higiene comunicada a todos los trabajadores.",
			},
		},
		{
			ID:       "AF.3.2.1",
			Category: CategoryWorkerWelfare,
			Level:    LevelMinorMust,
			Text: LocalizedText{
				"en": "Workers handling plant protection products have documented training.",
				"es": "Los trabajadores que manipulan productos fitosanitarios cuentan con formación documentada.",
			},
		},
		{
			ID:       "AF.6.1.1",
			Category: CategoryEnvironment,
			Level:    LevelRecommendation,
			Text: LocalizedText{
				"en": "A wildlife management and biodiversity action plan exists for the farm.",
				"es": "Existe un plan de acción de biodiversidad y gestión de fauna para la finca.",
			},
		},
		{
			ID:       "CB.1.1.1",
			Category: CategoryTraceability,
			Level:    LevelMajorMust,
			Text: LocalizedText{
				"en": "Registered product is traceable back to the registered farm where it was grown.",
				"es": "El producto registrado es trazable hasta la finca registrada donde se cultivó.",
			},
		},
		{
			ID:       "CB.4.1.1",
			Category: CategoryFoodSafety,
			Level:    LevelMajorMust,
			Text: LocalizedText{
				"en": "Water used for irrigation is assessed for microbial contamination risk.",
				"es": "El agua de riego se evalúa por riesgo de contaminación microbiana.",
			},
		},
		{
			ID:       "CB.7.1.1",
			Category: CategoryCropProtection,
			Level:    LevelMajorMust,
			Text: LocalizedText{
				"en": "Plant protection product applications are justified by a documented approval.",
				"es": "Las aplicaciones de productos fitosanitarios están justificadas por una aprobación documentada.",
			},
		},
		{
			ID:       "CB.7.3.1",
			Category: CategoryCropProtection,
			Level:    LevelMinorMust,
			Text: LocalizedText{
				"en": "Application records include crop, location, date, product and operator.",
				"es": "Los registros de aplicación incluyen cultivo, ubicación, fecha, producto y operador.",
			},
		},
		{
			ID:       "CB.7.6.1",
			Category: CategoryCropProtection,
			Level:    LevelMinorMust,
			Text: LocalizedText{
				"en": "Plant protection products are stored in a secure, ventilated facility.",
				"es": "Los productos fitosanitarios se almacenan en una instalación segura y ventilada.",
			},
		},
		{
			ID:       "CB.8.1.1",
			Category: CategoryFoodSafety,
			Level:    LevelMinorMust,
			Text: LocalizedText{
				"en": "Maximum residue limit compliance is verified for the destination market.",
				"es": "Se verifica el cumplimiento de los límites máximos de residuos para el mercado de destino.",
			},
		},
		{
			ID:       "CB.9.1.1",
			Category: CategoryEnvironment,
			Level:    LevelRecommendation,
			Text: LocalizedText{
				"en": "Energy use is monitored and reduction opportunities are identified.",
				"es": "Se monitorea el uso de energía y se identifican oportunidades de reducción.",
			},
		},
	}
}
