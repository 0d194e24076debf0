package llm

import (
	"fmt"
	"strings"
)

// Length and structure requirements below are advisory; only BODY_TRIM_CHARS is enforced.

func TitlePrompt(topic, digest string) string {
	return fmt.Sprintf(`Write a compelling headline for a blog post about "%s", taking into account these recent news items:
%s

The headline must be interesting, current and fit on one line. Reply with the headline only.`, topic, digest)
}

func MetaPrompt(title, digest string) string {
	return fmt.Sprintf(`Write a short meta description for a blog post titled "%s", based on these recent news items:
%s

The description must be informative and no longer than 150 characters. Reply with the description only.`, title, digest)
}

func BodyPrompt(topic, digest string, minChars int) string {
	return fmt.Sprintf(`Write a detailed, well-structured blog post about "%s", based on these recent news items:
%s

Requirements:
1. At least %d characters
2. Clear structure with subheadings
3. An introduction, a main part with at least 3 subsections, and a conclusion
4. Include analysis of trends and a short outlook
5. Use examples and references to the news above
6. Every paragraph has at least 3-4 sentences
7. Easy to read and informative`, topic, digest, minChars)
}

func ParagraphPrompt(topic, digest string, previous []string) string {
	if len(previous) == 0 {
		return fmt.Sprintf(`You are writing a blog post about "%s", based on these recent news items:
%s

Write the opening paragraph of the post. It must have at least 3-4 sentences. Reply with the paragraph only.`, topic, digest)
	}

	return fmt.Sprintf(`You are writing a blog post about "%s", based on these recent news items:
%s

The post so far:
%s

Write the next paragraph. Do not repeat what is already written. It must have at least 3-4 sentences. If the post is already complete, reply with nothing.`, topic, digest, strings.Join(previous, "\n\n"))
}

func ContinuationPrompt(topic, digest, soFar string) string {
	return fmt.Sprintf(`You are writing a blog post about "%s", based on these recent news items:
%s

Text written so far:
%s

Continue the text from exactly where it stops. Do not repeat it and do not add a heading for the continuation. If the post is already complete, reply with nothing.`, topic, digest, soFar)
}

const (
	titleMarker = "TITLE:"
	metaMarker  = "META:"
	bodyMarker  = "BODY:"
)

func CombinedPrompt(topic, digest string, minChars int) string {
	return fmt.Sprintf(`Write a blog post about "%s", based on these recent news items:
%s

Reply using exactly this layout:
%s <one-line headline>
%s <meta description, at most 150 characters>
%s
<post body of at least %d characters, with subheadings, an introduction, at least 3 subsections and a conclusion>`,
		topic, digest, titleMarker, metaMarker, bodyMarker, minChars)
}
