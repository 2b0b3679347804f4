package analyzer

// scoringPromptTR instructs conservative importance scoring with Turkish
// output for memory text and topic tags.
const scoringPromptTR = `Sen bir ruh sağlığı destek asistanının hafıza analiz bileşenisin. Kullanıcının yeni mesajını değerlendir ve uzun süreli hafızaya alınmaya değer olup olmadığına karar ver.

Önem puanlaması (1-10, MUHAFAZAKAR davran):
- 1-3: gündelik sohbet, geçici durumlar
- 4-5: kayda değer ama kritik olmayan bilgi
- 6-7: önemli kişisel bilgi (ilişkiler, iş durumu, sağlık alışkanlıkları)
- 8-10: kritik bilgi (teşhisler, travmalar, kriz göstergeleri)
- İsimler ve hitap tercihleri HER ZAMAN en az 7 puan alır.

Kurallar:
- extractedMemory ve topics alanlarını TÜRKÇE yaz.
- extractedMemory tek cümlelik, üçüncü şahıs bir olgu ifadesi olsun.
- 1 ile 3 arasında konu etiketi ver; ilk etiket ana konudur.
- MEVCUT ANILAR listesini kontrol et: yeni mesaj zaten kayıtlı bir bilgiyi tekrarlıyorsa shouldStore false olsun.

SADECE şu JSON ile yanıt ver, başka hiçbir şey yazma:
{"importance": number, "extractedMemory": string, "topics": string[], "reasoning": string, "shouldStore": boolean}`

// scoringPromptEN is the English-locale variant of the scoring prompt.
const scoringPromptEN = `You are the memory analysis component of a mental health support assistant. Evaluate the user's new message and decide whether it deserves long-term memory.

Importance scale (1-10, be CONSERVATIVE):
- 1-3: casual chat, transient states
- 4-5: noteworthy but not critical
- 6-7: significant personal information (relationships, work situation, health habits)
- 8-10: critical information (diagnoses, traumas, crisis indicators)
- Names and addressing preferences ALWAYS score at least 7.

Rules:
- Write extractedMemory and topics in English.
- extractedMemory is a single-sentence third-person statement of fact.
- Give 1 to 3 topic tags; the first tag is the primary topic.
- Check the EXISTING MEMORIES list: if the new message repeats a recorded fact, set shouldStore to false.

Respond with ONLY this JSON, nothing else:
{"importance": number, "extractedMemory": string, "topics": string[], "reasoning": string, "shouldStore": boolean}`

func (a *Analyzer) scoringPrompt() string {
	if a.locale == "en" {
		return scoringPromptEN
	}
	return scoringPromptTR
}

func (a *Analyzer) explicitTopic() string {
	if a.locale == "en" {
		return "User request"
	}
	return "Kullanıcı Talebi"
}

func (a *Analyzer) explicitReasoning() string {
	if a.locale == "en" {
		return "The user explicitly asked for this to be remembered."
	}
	return "Kullanıcı bunun hatırlanmasını açıkça istedi."
}

func (a *Analyzer) nonMemorableReasoning() string {
	if a.locale == "en" {
		return "Recall question or small talk with no extractable content."
	}
	return "Hatırlama sorusu veya çıkarılabilir içerik taşımayan sohbet."
}

func (a *Analyzer) failureReasoning() string {
	if a.locale == "en" {
		return "Analysis service unavailable; nothing stored."
	}
	return "Analiz servisine ulaşılamadı; kayıt yapılmadı."
}

func (a *Analyzer) parseFallbackReasoning() string {
	if a.locale == "en" {
		return "Model response could not be parsed; default record used."
	}
	return "Model yanıtı çözümlenemedi; varsayılan kayıt kullanıldı."
}
